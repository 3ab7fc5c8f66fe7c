package social

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodies(n int) []PostBody {
	out := make([]PostBody, n)
	for i := range out {
		out[i] = PostBody{Text: fmt.Sprintf("post %d", i+1)}
	}
	return out
}

func TestPublishThreadAllSucceed(t *testing.T) {
	client := newFakeClient("bluesky")
	client.digest = "cid-1"
	registry := testRegistry(map[string]*fakeClient{"bluesky-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	result := publisher.PublishThread(context.Background(), "bluesky-main", bodies(4), nil)

	require.True(t, result.Success)
	assert.Equal(t, ThreadComplete, result.State)
	assert.NoError(t, result.Err)
	assert.Len(t, result.Posts, 4)
	assert.Equal(t, "bluesky-main", result.Account)
	assert.Equal(t, result.Posts[0].URL, result.ThreadURL)
}

func TestPublishThreadChainsRepliesUnderRoot(t *testing.T) {
	client := newFakeClient("bluesky")
	registry := testRegistry(map[string]*fakeClient{"bluesky-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	result := publisher.PublishThread(context.Background(), "bluesky-main", bodies(3), nil)
	require.True(t, result.Success)
	require.Len(t, client.publishCalls, 3)

	// First post stands alone.
	assert.Nil(t, client.publishCalls[0].parent)
	assert.Nil(t, client.publishCalls[0].root)

	// Every reply carries the immediate parent and the thread root.
	for i := 1; i < 3; i++ {
		call := client.publishCalls[i]
		require.NotNil(t, call.parent, "post %d parent", i)
		require.NotNil(t, call.root, "post %d root", i)
		assert.Equal(t, result.Posts[i-1].ID, call.parent.ID)
		assert.Equal(t, result.Posts[0].ID, call.root.ID)
	}
}

func TestPublishThreadStopsAtFirstFailure(t *testing.T) {
	for _, failAt := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("fail_at_%d", failAt), func(t *testing.T) {
			client := newFakeClient("x")
			client.failAt = failAt
			registry := testRegistry(map[string]*fakeClient{"x-main": client})
			publisher := NewPublisher(registry, WithThreadDelay(0))

			result := publisher.PublishThread(context.Background(), "x-main", bodies(3), nil)

			assert.False(t, result.Success)
			assert.Equal(t, ThreadInterrupted, result.State)
			assert.Len(t, result.Posts, failAt)

			var partial PartialThreadError
			require.ErrorAs(t, result.Err, &partial)
			assert.Equal(t, failAt, partial.Published)
			assert.Equal(t, 3, partial.Total)

			var publishErr PublishError
			assert.ErrorAs(t, result.Err, &publishErr)

			// Nothing past the failure is attempted.
			assert.Len(t, client.publishCalls, failAt+1)
		})
	}
}

func TestPublishThreadMediaFirstPostOnly(t *testing.T) {
	client := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{"x-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	media := []Media{{Path: "chart.png", Alt: "a chart"}}
	input := bodies(3)
	// Later bodies declaring their own media still post bare.
	input[1].Media = []Media{{Path: "sneaky.png"}}
	input[2].Media = []Media{{Path: "sneakier.png"}}

	result := publisher.PublishThread(context.Background(), "x-main", input, media)
	require.True(t, result.Success)
	require.Len(t, client.publishCalls, 3)

	assert.Equal(t, media, client.publishCalls[0].body.Media)
	assert.Empty(t, client.publishCalls[1].body.Media)
	assert.Empty(t, client.publishCalls[2].body.Media)
}

func TestPublishThreadUnknownAccount(t *testing.T) {
	registry := testRegistry(map[string]*fakeClient{"x-main": newFakeClient("x")})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	result := publisher.PublishThread(context.Background(), "x-nope", bodies(2), nil)

	assert.False(t, result.Success)
	var unknown UnknownAccountError
	require.ErrorAs(t, result.Err, &unknown)
	assert.Equal(t, "x-nope", unknown.Name)
	assert.Empty(t, result.Posts)
}

func TestPublishThreadEmptyInput(t *testing.T) {
	registry := testRegistry(map[string]*fakeClient{"x-main": newFakeClient("x")})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	result := publisher.PublishThread(context.Background(), "x-main", nil, nil)

	assert.False(t, result.Success)
	var validation ValidationError
	assert.ErrorAs(t, result.Err, &validation)
}

func TestPublishThreadNoDeduplication(t *testing.T) {
	client := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{"x-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(0))

	first := publisher.PublishThread(context.Background(), "x-main", bodies(2), nil)
	second := publisher.PublishThread(context.Background(), "x-main", bodies(2), nil)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.NotEqual(t, first.Posts[0].ID, second.Posts[0].ID)
	assert.Len(t, client.publishCalls, 4)
}

func TestPublishThreadCancelledDuringDelay(t *testing.T) {
	client := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{"x-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := publisher.PublishThread(ctx, "x-main", bodies(3), nil)

	assert.False(t, result.Success)
	assert.Equal(t, ThreadInterrupted, result.State)
	// The first post lands before any delay; the cancelled wait keeps the
	// published prefix intact.
	assert.Len(t, result.Posts, 1)
	assert.Len(t, client.publishCalls, 1)

	var partial PartialThreadError
	require.ErrorAs(t, result.Err, &partial)
	assert.Equal(t, 1, partial.Published)
	assert.Equal(t, 3, partial.Total)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestPublishThreadNoDelayAfterLastPost(t *testing.T) {
	client := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{"x-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(time.Hour))

	// A cancelled context would fail any wait, so a single-body thread
	// completing proves the delay never runs after the last post.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := publisher.PublishThread(ctx, "x-main", bodies(1), nil)

	require.True(t, result.Success)
	assert.Equal(t, ThreadComplete, result.State)
	assert.Len(t, result.Posts, 1)
}

func TestPublishThreadWaitsBetweenPosts(t *testing.T) {
	client := newFakeClient("x")
	registry := testRegistry(map[string]*fakeClient{"x-main": client})
	publisher := NewPublisher(registry, WithThreadDelay(10*time.Millisecond))

	start := time.Now()
	result := publisher.PublishThread(context.Background(), "x-main", bodies(3), nil)

	require.True(t, result.Success)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestInterrupted(t *testing.T) {
	err := PartialThreadError{Account: "x-main", Published: 1, Total: 3, Cause: errors.New("boom")}
	assert.True(t, Interrupted(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, Interrupted(errors.New("other")))
}
