package policege

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// ParseMediaRefs finds every media placeholder on a protocol detail page,
// refs are returned in page order.
func ParseMediaRefs(doc *goquery.Document, schema Schema, page string) ([]MediaRef, error) {
	return parser{schema: schema}.mediaRefs(doc, page)
}

func (p parser) mediaRefs(doc *goquery.Document, page string) ([]MediaRef, error) {
	content, err := p.schema.require(doc.Selection, p.schema.MediaContent, page)
	if err != nil {
		return nil, err
	}
	container, err := p.schema.require(content.First(), p.schema.MediaContainer, page)
	if err != nil {
		return nil, err
	}
	wrapper := container.First().ChildrenFiltered(p.schema.MediaChild).Eq(p.schema.MediaWrapperIndex)
	if wrapper.Length() == 0 {
		return nil, p.schema.missing("media wrapper", page)
	}

	items := wrapper.ChildrenFiltered(p.schema.MediaChild)
	refs := make([]MediaRef, 0, items.Length())
	for i := range items.Nodes {
		item := items.Eq(i)

		img := p.schema.MediaImage.Find(item).First()
		if img.Length() > 0 {
			src := strings.TrimSpace(img.AttrOr("src", ""))
			if src == "" {
				err := p.schema.missing(p.schema.MediaImage.Name+" src", page)
				err.Detail = fmt.Sprintf("item %d", i)
				return nil, err
			}
			refs = append(refs, MediaRef{Kind: MediaPNG, Href: src})
			continue
		}

		markup, err := goquery.OuterHtml(item)
		if err != nil {
			return nil, err
		}
		groups := p.schema.AudioPattern.FindStringSubmatch(html.UnescapeString(markup))
		if len(groups) < 2 {
			err := p.schema.missing("media audio reference", page)
			err.Detail = fmt.Sprintf("item %d", i)
			return nil, err
		}
		refs = append(refs, MediaRef{
			Kind: MediaOGG,
			Href: fmt.Sprintf(p.schema.AudioHref, groups[1]),
		})
	}
	return refs, nil
}

// Media fetches the detail page at href and downloads every attachment on
// it, the result keeps the order of the page.
func (c *Client) Media(ctx context.Context, href string) ([]Media, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, span := tracer.Start(ctx, "client:Media")
	defer span.End()
	span.SetAttributes(attribute.String("href", href))

	c.tel.ReportDebug("getting media from page", href)

	doc, _, err := c.document(ctx, href, report_client_media)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch detail page")
		return nil, err
	}
	refs, err := c.parser.mediaRefs(doc, href)
	if err != nil {
		c.tel.ReportBroken(report_client_media, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse detail page")
		return nil, err
	}

	media := make([]Media, len(refs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.mediaConcurrency)
	for i, ref := range refs {
		group.Go(func() error {
			c.tel.ReportDebug("getting media item", ref.Href)
			res, err := c.fetch(groupCtx, ref.Href, report_client_media)
			if err != nil {
				return err
			}
			media[i] = Media{Blob: res.Body(), Kind: ref.Kind}
			return nil
		})
	}
	err = group.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch media")
		return nil, err
	}

	span.SetAttributes(attribute.Int("media", len(media)))
	return media, nil
}
