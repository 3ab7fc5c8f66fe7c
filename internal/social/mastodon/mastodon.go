package mastodon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blacktop/xthread/internal/social"
	mastodonapi "github.com/mattn/go-mastodon"
)

const (
	providerName   = social.PlatformMastodon
	requestTimeout = 30 * time.Second

	maxTextLen = 500
	maxMedia   = 4
)

// Client wraps the Mastodon API client.
type Client struct {
	client *mastodonapi.Client
}

// New constructs a Mastodon client for the configured instance.
func New(ctx context.Context, creds social.MastodonCredentials) (*Client, error) {
	mastodonClient := mastodonapi.NewClient(&mastodonapi.Config{
		Server:      creds.Server,
		AccessToken: creds.AccessToken,
	})
	mastodonClient.Timeout = requestTimeout

	return &Client{client: mastodonClient}, nil
}

// Name identifies the platform.
func (c *Client) Name() string { return providerName }

// Publish posts a status, optionally as a reply. Mastodon threads hang
// off in_reply_to_id alone, so the root reference is not used.
func (c *Client) Publish(ctx context.Context, body social.PostBody, parent, _ *social.PostReference) (*social.PostReference, error) {
	var mediaIDs []mastodonapi.ID
	for _, m := range social.CapMedia(body.Media, maxMedia) {
		attachment, err := c.uploadMedia(ctx, m.Path, m.Alt)
		if err != nil {
			return nil, err
		}
		mediaIDs = append(mediaIDs, attachment.ID)
	}

	toot := &mastodonapi.Toot{
		Status:   social.Truncate(body.Text, maxTextLen),
		MediaIDs: mediaIDs,
	}
	if parent != nil {
		toot.InReplyToID = mastodonapi.ID(parent.ID)
	}

	status, err := c.client.PostStatus(ctx, toot)
	if err != nil {
		return nil, fmt.Errorf("post status: %w", err)
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       string(status.ID),
		URL:      status.URL,
	}, nil
}

// LookupDigest is a no-op: Mastodon references are complete with the
// status ID.
func (c *Client) LookupDigest(ctx context.Context, platformID string) (string, error) {
	return "", nil
}

// Repost boosts the referenced status.
func (c *Client) Repost(ctx context.Context, ref social.PostReference) (*social.PostReference, error) {
	status, err := c.client.Reblog(ctx, mastodonapi.ID(ref.ID))
	if err != nil {
		return nil, fmt.Errorf("reblog: %w", err)
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       string(status.ID),
		URL:      status.URL,
	}, nil
}

func (c *Client) uploadMedia(ctx context.Context, path, alt string) (*mastodonapi.Attachment, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, social.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", path)}
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	attachment, err := c.client.UploadMediaFromMedia(ctx, &mastodonapi.Media{
		File:        file,
		Description: alt,
	})
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	return attachment, nil
}
