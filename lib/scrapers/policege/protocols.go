package policege

import (
	"context"
	"errors"
	"fmt"
	"math"
	"policevideos/internal/assert"
	"policevideos/lib/htmlutil"
	"policevideos/lib/telemetry"
	"policevideos/lib/timezone"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	statusPaidOnTime = "გადახდილია დროულად"
	statusUnpaid     = "გადაუხდელია"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseStatus maps the rendered payment status of a protocol to a
// ProtocolStatus, only the two known labels are recognized.
func ParseStatus(text string) ProtocolStatus {
	switch strings.TrimSpace(text) {
	case statusPaidOnTime:
		return StatusPaidOnTime
	case statusUnpaid:
		return StatusUnpaid
	}
	return StatusUnknown
}

// ParseAmount converts a rendered amount (ex. "15.50 GEL") into minor units,
// the last suffixLen characters are the currency and are dropped. Fractions
// of a minor unit are rounded up.
func ParseAmount(text string, suffixLen int) (int64, error) {
	runes := []rune(text)
	if len(runes) <= suffixLen {
		return 0, fmt.Errorf("%w: %q is too short", ErrInvalidAmount, text)
	}
	value := strings.TrimSpace(string(runes[:len(runes)-suffixLen]))
	units, err := parseMinorUnits(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, text, err)
	}
	return units, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseMinorUnits reads a plain decimal number and returns it multiplied by
// 100, it works on the digits directly so values like "10.001" round up to
// 1001 instead of whatever float rounding would produce.
func parseMinorUnits(value string) (int64, error) {
	whole, frac, _ := strings.Cut(value, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("no digits")
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("not a decimal number")
	}

	// whole units must leave room for the fraction and a round up once
	// scaled by 100
	const maxWhole = (math.MaxInt64 - 100) / 100

	var units int64
	for _, r := range whole {
		digit := int64(r - '0')
		if units > (maxWhole-digit)/10 {
			return 0, fmt.Errorf("out of range")
		}
		units = units*10 + digit
	}
	units *= 100

	if len(frac) > 0 {
		units += int64(frac[0]-'0') * 10
	}
	if len(frac) > 1 {
		units += int64(frac[1] - '0')
	}
	if len(frac) > 2 && strings.Trim(frac[2:], "0") != "" {
		units++
	}
	return units, nil
}

// FormatAmount renders minor units as a decimal amount (ex. 1550 -> "15.50").
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

type parser struct {
	schema Schema
	tel    telemetry.API
}

// ParseProtocols reads every row of the protocol listing page, rows are
// returned in page order.
func ParseProtocols(doc *goquery.Document, schema Schema, tel telemetry.API) ([]ProtocolRow, error) {
	assert.NotNil(tel)
	return parser{schema: schema, tel: tel}.protocols(doc)
}

func (p parser) protocols(doc *goquery.Document) ([]ProtocolRow, error) {
	grid, err := p.schema.require(doc.Selection, p.schema.ListingGrid, listingPage)
	if err != nil {
		return nil, err
	}
	rows := p.schema.ListingRow.Find(grid.First())

	out := make([]ProtocolRow, 0, rows.Length())
	for i := range rows.Nodes {
		row, err := p.protocolRow(rows.Eq(i), i)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (p parser) protocolRow(row *goquery.Selection, index int) (ProtocolRow, error) {
	cols := p.schema.RowColumn.Find(row)
	if cols.Length() <= p.schema.lastColumn() {
		err := p.schema.missing(p.schema.RowColumn.Name, listingPage)
		err.Detail = fmt.Sprintf("row %d has %d columns", index, cols.Length())
		return ProtocolRow{}, err
	}

	ids := htmlutil.TextNodes(cols.Get(p.schema.IdentifierColumn))
	if len(ids) < 2 {
		err := p.schema.missing("protocol identifiers", listingPage)
		err.Detail = fmt.Sprintf("row %d has %d identifier texts", index, len(ids))
		return ProtocolRow{}, err
	}
	protocol := Protocol{
		Number:    ids[0],
		CarNumber: ids[1],
	}
	p.tel.ReportDebug("getting information about protocol", protocol.CarNumber, protocol.Number)

	dateText, ok := htmlutil.FirstText(cols.Get(p.schema.DateColumn))
	if !ok {
		err := p.schema.missing("protocol date", listingPage)
		err.Detail = fmt.Sprintf("row %d", index)
		return ProtocolRow{}, err
	}
	date, err := time.ParseInLocation(p.schema.DateLayout, dateText, timezone.Location)
	if err != nil {
		return ProtocolRow{}, fmt.Errorf("protocol %s: parse date: %w", protocol.Number, err)
	}
	protocol.Date = date

	protocol.ViolationCode = htmlutil.GetText(cols.Get(p.schema.ViolationColumn))

	amountText, ok := htmlutil.FirstTextNode(cols.Get(p.schema.AmountColumn))
	if ok {
		amount, err := ParseAmount(amountText, p.schema.CurrencySuffixLen)
		if err != nil {
			return ProtocolRow{}, fmt.Errorf("protocol %s: %w", protocol.Number, err)
		}
		assert.NonNegative(amount)
		protocol.Amount = amount
	}

	statusText := htmlutil.GetText(cols.Get(p.schema.StatusColumn))
	protocol.Status = ParseStatus(statusText)
	if protocol.Status == StatusUnknown {
		p.tel.ReportWarning(report_rows_status, "unrecognized protocol status", protocol.Number, strings.TrimSpace(statusText))
	}

	out := ProtocolRow{Protocol: protocol}
	links := htmlutil.GetAnchors(p.schema.RowDetailLink.Find(row).First())
	if len(links) > 0 && links[0].Href != "" {
		out.Detail = &links[0]
	}
	return out, nil
}

// Protocols fetches and parses the protocol listing, media is not fetched.
func (c *Client) Protocols(ctx context.Context) ([]ProtocolRow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, span := tracer.Start(ctx, "client:Protocols")
	defer span.End()

	c.tel.ReportDebug("getting client protocols")

	doc, _, err := c.document(ctx, listingPage, report_client_protocols)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch listing")
		return nil, err
	}
	rows, err := c.parser.protocols(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_protocols, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse listing")
		return nil, err
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows, nil
}
