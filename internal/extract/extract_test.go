package extract

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"registro/internal/mail"
)

const subjectMarker = "Reservation confirmed for"

func newTestExtractor() *Extractor {
	return New(subjectMarker, "rent")
}

func encodeHTML(doc string) string {
	return base64.URLEncoding.EncodeToString([]byte(doc))
}

func confirmationHTML(checkinDate string, amounts ...string) string {
	body := fmt.Sprintf(`<script data-testid="siri-markup" type="application/ld+json">{"checkinDate":%q,"checkoutDate":"2025-03-08T00:00:00"}</script>`, checkinDate)
	for _, a := range amounts {
		body += fmt.Sprintf(`<div><p class="right heading3">%s</p></div>`, a)
	}
	return "<html><body>" + body + "</body></html>"
}

func message(subject, encodedHTML string) mail.Message {
	return mail.Message{
		ID: "msg-1",
		Headers: []mail.Header{
			{Name: "From", Value: "automated@airbnb.com"},
			{Name: "Subject", Value: subject},
		},
		Parts: []mail.Part{
			{MimeType: "text/plain", Data: encodeHTML("plain text version")},
			{MimeType: "text/html", Data: encodedHTML},
		},
	}
}

func TestExtract_Confirmation(t *testing.T) {
	x := newTestExtractor()
	msg := message(
		"Reservation confirmed for Casa Verde",
		encodeHTML(confirmationHTML("2025-03-03T00:00:00", "$1,250.00")),
	)

	got, err := x.Extract(msg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.CheckinDate.String() != "2025-03-03" {
		t.Errorf("checkin date = %s, want 2025-03-03", got.CheckinDate)
	}
	if got.Amount.String() != "1250" {
		t.Errorf("amount = %s, want 1250", got.Amount)
	}
	if got.Description != "rent Casa Verde" {
		t.Errorf("description = %q, want %q", got.Description, "rent Casa Verde")
	}
}

func TestExtract_LastAmountWins(t *testing.T) {
	x := newTestExtractor()
	msg := message(
		"Reservation confirmed for Casa Verde",
		encodeHTML(confirmationHTML("2025-03-03T00:00:00", "$999.00", "$1,250.00")),
	)

	got, err := x.Extract(msg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Amount.String() != "1250" {
		t.Errorf("amount = %s, want 1250 (last element)", got.Amount)
	}
}

func TestExtract_UnpaddedBase64(t *testing.T) {
	x := newTestExtractor()
	doc := confirmationHTML("2025-03-03T00:00:00", "$100.00")
	msg := message(
		"Reservation confirmed for Casa Verde",
		base64.RawURLEncoding.EncodeToString([]byte(doc)),
	)

	if _, err := x.Extract(msg); err != nil {
		t.Fatalf("Extract with unpadded body: %v", err)
	}
}

func TestExtract_NotExtractable(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name string
		msg  mail.Message
	}{
		{
			"missing subject",
			mail.Message{
				ID:    "m",
				Parts: []mail.Part{{}, {Data: encodeHTML(confirmationHTML("2025-03-03T00:00:00", "$1.00"))}},
			},
		},
		{
			"missing html part",
			mail.Message{
				ID:      "m",
				Headers: []mail.Header{{Name: "Subject", Value: "Reservation confirmed for X"}},
				Parts:   []mail.Part{{Data: encodeHTML("just one part")}},
			},
		},
		{
			"missing script marker",
			message("Reservation confirmed for X",
				encodeHTML(`<html><body><p class="right heading3">$1.00</p></body></html>`)),
		},
		{
			"missing amount element",
			message("Reservation confirmed for X",
				encodeHTML(`<html><body><script data-testid="siri-markup">{"checkinDate":"2025-03-03T00:00:00"}</script></body></html>`)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x.Extract(tt.msg)
			if !errors.Is(err, ErrNotExtractable) {
				t.Errorf("got %v, want ErrNotExtractable", err)
			}
		})
	}
}

func TestExtract_MalformedPayloadIsNotSentinel(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name string
		msg  mail.Message
	}{
		{
			"malformed json",
			message("Reservation confirmed for X",
				encodeHTML(`<html><body><script data-testid="siri-markup">{not json}</script><p class="right heading3">$1.00</p></body></html>`)),
		},
		{
			"malformed amount",
			message("Reservation confirmed for X",
				encodeHTML(confirmationHTML("2025-03-03T00:00:00", "about a grand"))),
		},
		{
			"malformed checkin date",
			message("Reservation confirmed for X",
				encodeHTML(confirmationHTML("sometime in march", "$1.00"))),
		},
		{
			"undecodable body",
			mail.Message{
				ID:      "m",
				Headers: []mail.Header{{Name: "Subject", Value: "Reservation confirmed for X"}},
				Parts:   []mail.Part{{}, {Data: "%%% not base64 %%%"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x.Extract(tt.msg)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNotExtractable) {
				t.Errorf("malformed payload should not be the structural sentinel: %v", err)
			}
		})
	}
}

func TestExtract_SubjectRemainderPreserved(t *testing.T) {
	x := newTestExtractor()
	msg := message(
		"Reservation confirmed for Villa al Mare - 5 nights",
		encodeHTML(confirmationHTML("2025-07-01T00:00:00", "$2,000.00")),
	)

	got, err := x.Extract(msg)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Description != "rent Villa al Mare - 5 nights" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"$1,250.00", "1250", false},
		{"$837", "837", false},
		{" $12.50 ", "12.5", false},
		{"1250.00", "1250", false},
		{"$1,234,567.89", "1234567.89", false},
		{"", "", true},
		{"free", "", true},
	}

	for _, tt := range tests {
		got, err := parseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseAmount(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAmount(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
