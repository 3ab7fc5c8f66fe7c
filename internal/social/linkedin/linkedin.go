// Package linkedin publishes through a webhook relay (a Zapier-style
// catch hook wired to a LinkedIn page). The relay accepts a JSON payload
// and performs the actual LinkedIn API call out of band.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/blacktop/xthread/internal/logutil"
	"github.com/blacktop/xthread/internal/social"
	"github.com/google/uuid"
)

const (
	providerName   = social.PlatformLinkedIn
	requestTimeout = 30 * time.Second

	maxTextLen = 3000
)

// Client implements the social.Client interface over a webhook relay.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// New constructs a LinkedIn webhook client.
func New(ctx context.Context, creds social.LinkedInCredentials) (*Client, error) {
	if creds.WebhookURL == "" {
		return nil, social.MissingEnvError{Provider: providerName, Variables: []string{"XTHREAD_LINKEDIN_WEBHOOK_URL"}}
	}
	return &Client{
		webhookURL: creds.WebhookURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// Name identifies the platform.
func (c *Client) Name() string { return providerName }

type webhookPayload struct {
	Type      string            `json:"type"`
	Content   string            `json:"content"`
	Images    []string          `json:"images"`
	Link      string            `json:"link,omitempty"`
	Platforms []string          `json:"platforms"`
	Metadata  map[string]string `json:"metadata"`
}

type webhookResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// Publish relays the post to the webhook. The relay has no reply
// primitive, so parent and root ids travel in the payload metadata for
// relays that can thread comments; the reference id is taken from the
// relay response or minted locally when the response carries none.
func (c *Client) Publish(ctx context.Context, body social.PostBody, parent, root *social.PostReference) (*social.PostReference, error) {
	images := make([]string, 0, len(body.Media))
	for _, m := range body.Media {
		images = append(images, m.Path)
	}

	metadata := map[string]string{"source": "xthread"}
	if parent != nil {
		metadata["parent_id"] = parent.ID
	}
	if root != nil {
		metadata["root_id"] = root.ID
	}

	resp, err := c.send(ctx, webhookPayload{
		Type:      "post",
		Content:   social.Truncate(body.Text, maxTextLen),
		Images:    images,
		Platforms: []string{providerName},
		Metadata:  metadata,
	})
	if err != nil {
		return nil, err
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       referenceID(resp),
	}, nil
}

// LookupDigest is a no-op: webhook references carry no content digest.
func (c *Client) LookupDigest(ctx context.Context, platformID string) (string, error) {
	return "", nil
}

// Repost relays a reshare of a previously published post.
func (c *Client) Repost(ctx context.Context, ref social.PostReference) (*social.PostReference, error) {
	resp, err := c.send(ctx, webhookPayload{
		Type:      "reshare",
		Link:      ref.URL,
		Platforms: []string{providerName},
		Metadata:  map[string]string{"source": "xthread", "post_id": ref.ID},
	})
	if err != nil {
		return nil, err
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       referenceID(resp),
	}, nil
}

func (c *Client) send(ctx context.Context, payload webhookPayload) (*webhookResponse, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send webhook: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("webhook returned %s", res.Status)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	var resp webhookResponse
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			// Some relays answer with plain text; treat it as an empty body.
			logutil.Debugf("webhook response not json: %q", string(data))
		}
	}

	return &resp, nil
}

func referenceID(resp *webhookResponse) string {
	switch {
	case resp.ID != "":
		return resp.ID
	case resp.RequestID != "":
		return resp.RequestID
	default:
		return uuid.NewString()
	}
}
