// Package gmail implements the mail.Source contract on the Gmail API.
package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	ggmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"registro/internal/mail"
)

// user is the authenticated mailbox. The Gmail API resolves "me" to the
// account the OAuth token was issued for.
const user = "me"

type Client struct {
	svc *ggmail.Service
}

// Ensure interface conformance
var _ mail.Source = (*Client)(nil)

// NewFromEnv creates a Gmail client using OAuth user credentials from
// the environment: GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE
// for the OAuth client, and GOOGLE_OAUTH_TOKEN_JSON or
// GOOGLE_OAUTH_TOKEN_FILE for the cached token (see cmd/oauth-init).
func NewFromEnv(ctx context.Context) (*Client, error) {
	clientJSON, err := readEnvOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := readEnvOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}

	cfg, err := google.ConfigFromJSON(clientJSON, ggmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	svc, err := ggmail.NewService(ctx, goption.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

func readEnvOrFile(jsonKey, fileKey string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonKey)); v != "" {
		return []byte(v), nil
	}
	if path := strings.TrimSpace(os.Getenv(fileKey)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileKey, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("missing %s or %s", jsonKey, fileKey)
}

// Search lists every message matching query, following pagination until
// the result set is exhausted.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := c.svc.Users.Messages.List(user).Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return ids, nil
}

// Fetch returns the full message including headers and body parts.
func (c *Client) Fetch(ctx context.Context, id string) (mail.Message, error) {
	msg, err := c.svc.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return mail.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}

	out := mail.Message{ID: msg.Id}
	if msg.Payload == nil {
		return out, nil
	}
	for _, h := range msg.Payload.Headers {
		out.Headers = append(out.Headers, mail.Header{Name: h.Name, Value: h.Value})
	}
	for _, p := range msg.Payload.Parts {
		part := mail.Part{MimeType: p.MimeType}
		if p.Body != nil {
			part.Data = p.Body.Data
		}
		out.Parts = append(out.Parts, part)
	}
	return out, nil
}

// EnsureLabel creates the label, resolving a creation race by listing
// existing labels when the API reports a conflict.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	label, err := c.svc.Users.Labels.Create(user, &ggmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err == nil {
		slog.InfoContext(ctx, "Label created", "label", name, "label_id", label.Id)
		return label.Id, nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusConflict {
		return "", &mail.LabelError{Name: name, Err: err}
	}

	// Label already exists; resolve its ID by listing.
	slog.DebugContext(ctx, "Label already exists, resolving by list", "label", name)
	existing, err := c.svc.Users.Labels.List(user).Context(ctx).Do()
	if err != nil {
		return "", &mail.LabelError{Name: name, Err: err}
	}
	for _, l := range existing.Labels {
		if l.Name == name {
			return l.Id, nil
		}
	}
	return "", &mail.LabelError{Name: name, Err: errors.New("label reported as existing but not found")}
}

// ApplyLabel adds the label to every message in ids with a single batch
// call.
func (c *Client) ApplyLabel(ctx context.Context, ids []string, labelID string) error {
	err := c.svc.Users.Messages.BatchModify(user, &ggmail.BatchModifyMessagesRequest{
		Ids:         ids,
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch modify %d messages: %w", len(ids), err)
	}
	return nil
}
