package policege

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// Selector is a named element of the portal's markup, Queries are tried in
// order and the first one that matches anything wins.
type Selector struct {
	Name    string
	Queries []string
}

func (s Selector) Find(root *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	for _, q := range s.Queries {
		found = root.Find(q)
		if found.Length() > 0 {
			return found
		}
	}
	if found == nil {
		return root.Slice(0, 0)
	}
	return found
}

// SchemaError means the portal's markup no longer looks like what Schema
// describes, there is nothing to recover from until the schema is updated.
type SchemaError struct {
	Schema  string
	Element string
	Page    string
	Detail  string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("portal markup mismatch (schema %s): %s not found on %s", e.Schema, e.Element, e.Page)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Schema describes where everything lives in the portal's templates.
type Schema struct {
	Version string

	SessionCookie string

	CaptchaImage Selector
	CsrfToken    Selector
	LoginWarning Selector

	ListingGrid   Selector
	ListingRow    Selector
	RowColumn     Selector
	RowDetailLink Selector

	IdentifierColumn int
	DateColumn       int
	ViolationColumn  int
	AmountColumn     int
	StatusColumn     int

	DateLayout string
	// amounts are rendered with a fixed width currency suffix (ex. "15.50 GEL")
	CurrencySuffixLen int

	// the media wrapper is the WrapperIndex-th Child of the first Container
	// inside Content, every Child of the wrapper is one attachment.
	MediaContent      Selector
	MediaContainer    Selector
	MediaChild        string
	MediaWrapperIndex int
	MediaImage        Selector
	// first group is the audio id
	AudioPattern *regexp.Regexp
	AudioHref    string
}

var SchemaV1 = Schema{
	Version: "v1",

	SessionCookie: "PHPSESSID",

	CaptchaImage: Selector{Name: "captcha image", Queries: []string{"img#captcha_code_img"}},
	CsrfToken:    Selector{Name: "csrf token", Queries: []string{"input[name=csrf_token]"}},
	LoginWarning: Selector{Name: "login warning", Queries: []string{"div.value.warning", "div.warning", "div.value"}},

	ListingGrid:   Selector{Name: "protocol grid", Queries: []string{"div.grid"}},
	ListingRow:    Selector{Name: "protocol row", Queries: []string{"div.row"}},
	RowColumn:     Selector{Name: "protocol column", Queries: []string{"span.col"}},
	RowDetailLink: Selector{Name: "protocol detail link", Queries: []string{"a[href]"}},

	IdentifierColumn: 1,
	DateColumn:       2,
	ViolationColumn:  3,
	AmountColumn:     4,
	StatusColumn:     6,

	DateLayout:        "2.1.2006",
	CurrencySuffixLen: 4,

	MediaContent:      Selector{Name: "media content", Queries: []string{"div#content"}},
	MediaContainer:    Selector{Name: "media container", Queries: []string{"div"}},
	MediaChild:        "div",
	MediaWrapperIndex: 1,
	MediaImage:        Selector{Name: "media image", Queries: []string{"img"}},
	AudioPattern:      regexp.MustCompile(`'oggvideo-(.*)\.ogg';src2`),
	AudioHref:         "oggvideo-%s.ogg",
}

func (s Schema) missing(element, page string) *SchemaError {
	return &SchemaError{Schema: s.Version, Element: element, Page: page}
}

// require finds sel under root and fails with a SchemaError if nothing matches.
func (s Schema) require(root *goquery.Selection, sel Selector, page string) (*goquery.Selection, error) {
	found := sel.Find(root)
	if found.Length() == 0 {
		return nil, s.missing(sel.Name, page)
	}
	return found, nil
}

func (s Schema) lastColumn() int {
	return max(
		s.IdentifierColumn,
		s.DateColumn,
		s.ViolationColumn,
		s.AmountColumn,
		s.StatusColumn,
	)
}
