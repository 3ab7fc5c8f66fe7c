package bluesky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/blacktop/xthread/internal/logutil"
	"github.com/blacktop/xthread/internal/social"
	comatproto "github.com/bluesky-social/indigo/api/atproto"
	appbsky "github.com/bluesky-social/indigo/api/bsky"
	lexutil "github.com/bluesky-social/indigo/lex/util"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	providerName   = social.PlatformBluesky
	requestTimeout = 30 * time.Second

	maxTextLen = 300
	maxMedia   = 4

	postCollection   = "app.bsky.feed.post"
	repostCollection = "app.bsky.feed.repost"
)

// Client implements the social.Client interface for Bluesky.
type Client struct {
	client *xrpc.Client
	handle string
}

// New constructs a Bluesky client by creating a session on the PDS.
func New(ctx context.Context, creds social.BlueskyCredentials) (*Client, error) {
	pdsURL := strings.TrimSpace(creds.PDSURL)
	if pdsURL == "" {
		pdsURL = "https://bsky.social"
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	userAgent := "xthread/1"
	xrpcClient := &xrpc.Client{
		Client:    httpClient,
		Host:      pdsURL,
		UserAgent: &userAgent,
	}

	session, err := comatproto.ServerCreateSession(ctx, xrpcClient, &comatproto.ServerCreateSession_Input{
		Identifier: creds.Handle,
		Password:   creds.AppPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	xrpcClient.Auth = &xrpc.AuthInfo{
		AccessJwt:  session.AccessJwt,
		RefreshJwt: session.RefreshJwt,
		Handle:     session.Handle,
		Did:        session.Did,
	}

	return &Client{client: xrpcClient, handle: session.Handle}, nil
}

// Name identifies the platform.
func (c *Client) Name() string { return providerName }

// Publish creates a post record with an optional image embed. Bluesky
// groups threads under their root, so replies carry strong refs (uri+cid)
// for both the immediate parent and the thread root.
func (c *Client) Publish(ctx context.Context, body social.PostBody, parent, root *social.PostReference) (*social.PostReference, error) {
	post := &appbsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Text:      social.Truncate(body.Text, maxTextLen),
	}

	if media := social.CapMedia(body.Media, maxMedia); len(media) > 0 {
		images := make([]*appbsky.EmbedImages_Image, 0, len(media))
		for _, m := range media {
			blob, err := c.uploadImage(ctx, m.Path)
			if err != nil {
				return nil, err
			}
			images = append(images, &appbsky.EmbedImages_Image{
				Alt:   m.Alt,
				Image: blob,
			})
		}
		post.Embed = &appbsky.FeedPost_Embed{
			EmbedImages: &appbsky.EmbedImages{Images: images},
		}
	}

	if parent != nil {
		rootRef := parent
		if root != nil {
			rootRef = root
		}
		post.Reply = &appbsky.FeedPost_ReplyRef{
			Parent: &comatproto.RepoStrongRef{Uri: parent.ID, Cid: parent.Digest},
			Root:   &comatproto.RepoStrongRef{Uri: rootRef.ID, Cid: rootRef.Digest},
		}
	}

	res, err := comatproto.RepoCreateRecord(ctx, c.client, &comatproto.RepoCreateRecord_Input{
		Collection: postCollection,
		Repo:       c.client.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{
			Val: post,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       res.Uri,
		Digest:   res.Cid,
		URL:      c.postURL(res.Uri),
	}, nil
}

// LookupDigest fetches the CID for a post by its AT URI. The post may be
// missing if it was deleted or is not yet visible to the AppView.
func (c *Client) LookupDigest(ctx context.Context, platformID string) (string, error) {
	res, err := appbsky.FeedGetPosts(ctx, c.client, []string{platformID})
	if err != nil {
		return "", fmt.Errorf("get post: %w", err)
	}
	if len(res.Posts) == 0 {
		return "", fmt.Errorf("post %s not found", platformID)
	}
	logutil.Debugf("resolved cid for %s", platformID)
	return res.Posts[0].Cid, nil
}

// Repost creates a repost record pointing at the referenced post. The
// subject strong ref requires both uri and cid.
func (c *Client) Repost(ctx context.Context, ref social.PostReference) (*social.PostReference, error) {
	if ref.Digest == "" {
		return nil, social.ValidationError{Provider: providerName, Reason: fmt.Sprintf("repost of %s requires a cid", ref.ID)}
	}

	record := &appbsky.FeedRepost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Subject: &comatproto.RepoStrongRef{
			Uri: ref.ID,
			Cid: ref.Digest,
		},
	}

	res, err := comatproto.RepoCreateRecord(ctx, c.client, &comatproto.RepoCreateRecord_Input{
		Collection: repostCollection,
		Repo:       c.client.Auth.Did,
		Record: &lexutil.LexiconTypeDecoder{
			Val: record,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create repost record: %w", err)
	}

	return &social.PostReference{
		Platform: providerName,
		ID:       res.Uri,
		Digest:   res.Cid,
		URL:      c.postURL(ref.ID),
	}, nil
}

func (c *Client) uploadImage(ctx context.Context, path string) (*lexutil.LexBlob, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, social.ValidationError{Provider: providerName, Reason: fmt.Sprintf("image %q not found", path)}
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, file); err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	resp, err := comatproto.RepoUploadBlob(ctx, c.client, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	if resp.Blob == nil {
		return nil, fmt.Errorf("upload blob: empty response")
	}

	return resp.Blob, nil
}

// postURL turns an AT URI into a bsky.app permalink for this account.
func (c *Client) postURL(uri string) string {
	parts := strings.Split(uri, "/")
	rkey := parts[len(parts)-1]
	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", c.handle, rkey)
}
