package social

import (
	"context"
	"strings"
)

// Media is a locator for an image to attach to a post.
type Media struct {
	Path string
	Alt  string
}

// PostBody is a single post's content before publishing.
type PostBody struct {
	Text  string
	Media []Media
}

// PostReference identifies a published post on a platform. ID is the
// platform's primary identifier (tweet ID, AT URI, status ID). Digest is
// the content-addressed token some platforms require to reference a
// specific version of a post (Bluesky's CID); empty for platforms that
// only need the ID.
type PostReference struct {
	Platform string
	ID       string
	Digest   string
	URL      string
}

// ThreadState tracks a thread publish through its lifecycle.
type ThreadState string

const (
	ThreadPending     ThreadState = "pending"
	ThreadPosting     ThreadState = "posting"
	ThreadComplete    ThreadState = "complete"
	ThreadInterrupted ThreadState = "interrupted"
)

// ThreadResult reports the outcome of publishing a thread. Posts holds
// the references for every post that succeeded, in order, even when the
// thread was interrupted partway through.
type ThreadResult struct {
	State     ThreadState
	Success   bool
	Account   string
	Posts     []PostReference
	ThreadURL string
	Err       error
}

// RepostOutcome is one target account's result within a repost fan-out.
type RepostOutcome struct {
	Success   bool
	Account   string
	From      string
	Reference *PostReference
	Err       error
}

// Client abstracts one platform account capable of publishing posts,
// resolving content digests, and resharing posts.
type Client interface {
	// Name identifies the platform (x, bluesky, mastodon, linkedin).
	Name() string
	// Publish creates a post. parent and root are nil for a standalone
	// post; platforms that group threads under their root receive both on
	// every reply.
	Publish(ctx context.Context, body PostBody, parent, root *PostReference) (*PostReference, error)
	// LookupDigest fetches the content digest for a published post.
	// Platforms that do not content-address posts return "" with no error.
	LookupDigest(ctx context.Context, platformID string) (string, error)
	// Repost reshares a post. The reference must carry its digest on
	// platforms that require one.
	Repost(ctx context.Context, ref PostReference) (*PostReference, error)
}

const truncationMarker = "..."

// Truncate shortens text to at most limit runes, replacing the tail with
// a marker. Text within the limit is returned unchanged.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	marker := []rune(truncationMarker)
	if limit <= len(marker) {
		return string(marker[:limit])
	}
	return strings.TrimRight(string(runes[:limit-len(marker)]), " ") + truncationMarker
}

// CapMedia limits attachments to a platform's maximum.
func CapMedia(media []Media, max int) []Media {
	if len(media) <= max {
		return media
	}
	return media[:max]
}
