// Package extract turns a booking-confirmation message into the
// date+amount+description triple the ledger needs. All knowledge of the
// provider's HTML layout is confined here; callers only see the
// Extract contract.
package extract

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"registro/internal/core"
	"registro/internal/mail"
)

// The provider embeds booking facts as a JSON script element flagged
// with this attribute, and displays the paid amount in elements with
// the amountClasses combination. Confirmation emails may show a
// subtotal before the final total, so the last amount element wins.
const (
	markerAttr  = "data-testid"
	markerValue = "siri-markup"

	htmlPartIndex = 1
)

var amountClasses = []string{"right", "heading3"}

// ErrNotExtractable marks a message that lacks the expected structural
// markers. It is a skip signal, not a failure: the caller leaves the
// message unmarked so it stays a candidate for the next run.
var ErrNotExtractable = errors.New("message not extractable")

// Result is the transient outcome of a successful extraction. It is
// never persisted on its own; it either becomes a ledger entry or is
// discarded.
type Result struct {
	CheckinDate core.Date
	Amount      decimal.Decimal
	Description string
}

// Extractor parses one provider's confirmation layout.
type Extractor struct {
	subjectMarker string
	replacement   string
}

// New creates an extractor that replaces subjectMarker in message
// subjects with replacement when deriving descriptions.
func New(subjectMarker, replacement string) *Extractor {
	return &Extractor{subjectMarker: subjectMarker, replacement: replacement}
}

// Extract parses the message's embedded payload. A structural absence
// (missing subject, missing script marker, no amount element) returns
// ErrNotExtractable; a malformed-but-present payload returns a plain
// error. Both mean "skip this message, do not mark it".
func (x *Extractor) Extract(msg mail.Message) (Result, error) {
	subject, ok := msg.Subject()
	if !ok {
		return Result{}, fmt.Errorf("missing subject header: %w", ErrNotExtractable)
	}

	if len(msg.Parts) <= htmlPartIndex {
		return Result{}, fmt.Errorf("missing html body part: %w", ErrNotExtractable)
	}
	raw, err := decodeBody(msg.Parts[htmlPartIndex].Data)
	if err != nil {
		return Result{}, fmt.Errorf("decode html body part: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}

	script := findMarkupScript(doc)
	if script == nil {
		return Result{}, fmt.Errorf("structured-data script not found: %w", ErrNotExtractable)
	}

	var payload struct {
		CheckinDate string `json:"checkinDate"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(textContent(script))), &payload); err != nil {
		return Result{}, fmt.Errorf("parse booking payload: %w", err)
	}
	checkin, err := core.ParseDate(payload.CheckinDate)
	if err != nil {
		return Result{}, fmt.Errorf("parse checkin date %q: %w", payload.CheckinDate, err)
	}

	amountNodes := findAmountNodes(doc)
	if len(amountNodes) == 0 {
		return Result{}, fmt.Errorf("amount element not found: %w", ErrNotExtractable)
	}
	last := amountNodes[len(amountNodes)-1]
	amount, err := parseAmount(textContent(last))
	if err != nil {
		return Result{}, fmt.Errorf("parse amount: %w", err)
	}

	return Result{
		CheckinDate: checkin,
		Amount:      amount,
		Description: strings.ReplaceAll(subject, x.subjectMarker, x.replacement),
	}, nil
}

// decodeBody decodes the URL-safe base64 body data, with or without
// padding (the provider omits it).
func decodeBody(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// parseAmount parses currency-formatted display text, stripping a
// leading currency symbol and thousands separators.
func parseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}

// findMarkupScript walks the document for a script element carrying the
// structured-data marker attribute.
func findMarkupScript(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "script" {
		for _, a := range n.Attr {
			if a.Key == markerAttr && a.Val == markerValue {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMarkupScript(c); found != nil {
			return found
		}
	}
	return nil
}

// findAmountNodes collects, in document order, every element whose
// class attribute carries all the amount display classes.
func findAmountNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClasses(n, amountClasses) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasClasses(n *html.Node, want []string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		have := strings.Fields(a.Val)
		for _, w := range want {
			found := false
			for _, h := range have {
				if h == w {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
