package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepostFanOutIsolatesUnknownAccount(t *testing.T) {
	us := newFakeClient("bluesky")
	us.digest = "cid-abc"
	uk := newFakeClient("bluesky")
	uk.digest = "cid-abc"
	registry := testRegistry(map[string]*fakeClient{
		"bluesky-us": us,
		"bluesky-uk": uk,
	})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "bluesky", ID: "at://did:plc:abc/app.bsky.feed.post/xyz"}
	results := orchestrator.Repost(context.Background(), ref, "bluesky-main", []string{"bluesky-us", "bluesky-ghost", "bluesky-uk"})

	require.Len(t, results, 3)

	var unknown UnknownAccountError
	require.ErrorAs(t, results["bluesky-ghost"].Err, &unknown)
	assert.False(t, results["bluesky-ghost"].Success)

	// The unknown account never blocks the others.
	assert.True(t, results["bluesky-us"].Success)
	assert.True(t, results["bluesky-uk"].Success)
	assert.Equal(t, "bluesky-main", results["bluesky-us"].From)
}

func TestRepostResolvesDigestOnceBeforeReposting(t *testing.T) {
	client := newFakeClient("bluesky")
	client.digest = "cid-resolved"
	registry := testRegistry(map[string]*fakeClient{"bluesky-us": client})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "bluesky", ID: "at://did:plc:abc/app.bsky.feed.post/xyz"}
	results := orchestrator.Repost(context.Background(), ref, "bluesky-main", []string{"bluesky-us"})

	require.True(t, results["bluesky-us"].Success)
	assert.Equal(t, 1, client.digestCalls)
	require.Len(t, client.repostCalls, 1)
	assert.Equal(t, "cid-resolved", client.repostCalls[0].Digest)
}

func TestRepostDigestFailureSkipsRepostCall(t *testing.T) {
	client := newFakeClient("bluesky")
	client.digestErr = errors.New("post not found")
	registry := testRegistry(map[string]*fakeClient{"bluesky-us": client})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "bluesky", ID: "at://did:plc:abc/app.bsky.feed.post/xyz"}
	results := orchestrator.Repost(context.Background(), ref, "bluesky-main", []string{"bluesky-us"})

	outcome := results["bluesky-us"]
	assert.False(t, outcome.Success)
	var digestErr DigestResolutionError
	require.ErrorAs(t, outcome.Err, &digestErr)

	assert.Equal(t, 1, client.digestCalls)
	assert.Empty(t, client.repostCalls, "no repost call after failed resolution")
}

func TestRepostDigestResolutionSharedAcrossTargets(t *testing.T) {
	us := newFakeClient("bluesky")
	us.digest = "cid-shared"
	uk := newFakeClient("bluesky")
	uk.digest = "cid-shared"
	registry := testRegistry(map[string]*fakeClient{
		"bluesky-us": us,
		"bluesky-uk": uk,
	})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "bluesky", ID: "at://did:plc:abc/app.bsky.feed.post/xyz"}
	results := orchestrator.Repost(context.Background(), ref, "bluesky-main", []string{"bluesky-us", "bluesky-uk"})

	require.True(t, results["bluesky-us"].Success)
	require.True(t, results["bluesky-uk"].Success)

	// One successful resolution serves the whole fan-out.
	assert.Equal(t, 1, us.digestCalls+uk.digestCalls)
	require.Len(t, uk.repostCalls, 1)
	assert.Equal(t, "cid-shared", uk.repostCalls[0].Digest)
}

func TestRepostSkipsLookupWhenDigestPresent(t *testing.T) {
	client := newFakeClient("bluesky")
	registry := testRegistry(map[string]*fakeClient{"bluesky-us": client})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "bluesky", ID: "at://did:plc:abc/app.bsky.feed.post/xyz", Digest: "cid-known"}
	results := orchestrator.Repost(context.Background(), ref, "bluesky-main", []string{"bluesky-us"})

	require.True(t, results["bluesky-us"].Success)
	assert.Zero(t, client.digestCalls)
	require.Len(t, client.repostCalls, 1)
	assert.Equal(t, "cid-known", client.repostCalls[0].Digest)
}

func TestRepostCancelledDelayRecordedPerAccount(t *testing.T) {
	us := newFakeClient("x")
	uk := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{
		"x-us": us,
		"x-uk": uk,
	})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(time.Hour))

	// The first target runs before any delay; the cancelled wait fails
	// the rest without aborting the fan-out.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ref := PostReference{Platform: "x", ID: "1893"}
	results := orchestrator.Repost(ctx, ref, "x-main", []string{"x-us", "x-uk", "x-ghost"})

	require.Len(t, results, 3)
	require.True(t, results["x-us"].Success)
	require.Len(t, us.repostCalls, 1)

	assert.False(t, results["x-uk"].Success)
	var publishErr PublishError
	require.ErrorAs(t, results["x-uk"].Err, &publishErr)
	assert.Equal(t, "x-uk", publishErr.Account)
	assert.ErrorIs(t, results["x-uk"].Err, context.Canceled)
	assert.Empty(t, uk.repostCalls)

	// An unknown target keeps its more precise error even when its delay
	// was also cancelled.
	var unknown UnknownAccountError
	require.ErrorAs(t, results["x-ghost"].Err, &unknown)
}

func TestRepostWaitsBetweenTargets(t *testing.T) {
	us := newFakeClient("x")
	uk := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{
		"x-us": us,
		"x-uk": uk,
	})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(10*time.Millisecond))

	start := time.Now()
	results := orchestrator.Repost(context.Background(), PostReference{Platform: "x", ID: "1893"}, "x-main", []string{"x-us", "x-uk"})

	require.True(t, results["x-us"].Success)
	require.True(t, results["x-uk"].Success)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRepostFailureRecordedPerAccount(t *testing.T) {
	good := newFakeClient("x")
	bad := newFakeClient("x")
	bad.repostErr = errors.New("duplicate retweet")
	registry := testRegistry(map[string]*fakeClient{
		"x-us": good,
		"x-uk": bad,
	})
	orchestrator := NewOrchestrator(registry, WithRepostDelay(0))

	ref := PostReference{Platform: "x", ID: "1893"}
	results := orchestrator.Repost(context.Background(), ref, "x-main", []string{"x-uk", "x-us"})

	assert.False(t, results["x-uk"].Success)
	var publishErr PublishError
	require.ErrorAs(t, results["x-uk"].Err, &publishErr)

	require.True(t, results["x-us"].Success)
	require.NotNil(t, results["x-us"].Reference)
	assert.Equal(t, "x-main", results["x-us"].From)
}
