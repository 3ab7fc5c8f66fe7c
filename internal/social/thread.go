package social

import (
	"context"
	"errors"
	"time"

	"github.com/blacktop/xthread/internal/logutil"
)

const defaultThreadDelay = 2 * time.Second

// Publisher publishes ordered post sequences as linked threads on one
// account. Posts are strictly sequenced; each post replies to the
// previous one and carries the thread root for platforms that need it.
type Publisher struct {
	registry *Registry
	delay    time.Duration
}

// PublisherOption adjusts publisher behavior.
type PublisherOption func(*Publisher)

// WithThreadDelay overrides the courtesy delay between consecutive posts.
func WithThreadDelay(d time.Duration) PublisherOption {
	return func(p *Publisher) { p.delay = d }
}

// NewPublisher builds a thread publisher over the registry.
func NewPublisher(registry *Registry, opts ...PublisherOption) *Publisher {
	pub := &Publisher{
		registry: registry,
		delay:    defaultThreadDelay,
	}
	for _, opt := range opts {
		opt(pub)
	}
	return pub
}

// PublishThread posts bodies in order as a linked thread on the named
// account. Media attaches to the first post only; media on later bodies
// is ignored. The first failure stops the thread: the result carries the
// successfully published prefix (never rolled back) and the cause. A
// courtesy delay runs between consecutive successful posts, never after
// the last.
func (p *Publisher) PublishThread(ctx context.Context, account string, bodies []PostBody, media []Media) *ThreadResult {
	result := &ThreadResult{State: ThreadPending, Account: account}

	if len(bodies) == 0 {
		result.Err = ValidationError{Provider: "thread", Reason: "no post bodies supplied"}
		return result
	}

	target, err := p.registry.Resolve(account)
	if err != nil {
		result.Err = err
		return result
	}

	result.State = ThreadPosting
	var root, previous *PostReference

	for i, body := range bodies {
		if i == 0 {
			body.Media = media
		} else {
			// Media never attaches past the first post.
			body.Media = nil
		}

		ref, err := target.Client.Publish(ctx, body, previous, root)
		if err != nil {
			result.State = ThreadInterrupted
			result.Err = PartialThreadError{
				Account:   account,
				Published: len(result.Posts),
				Total:     len(bodies),
				Cause:     PublishError{Provider: target.Platform, Account: account, Cause: err},
			}
			logutil.Errorf("thread interrupted on %s at post %d/%d: %v", account, i+1, len(bodies), err)
			return result
		}

		result.Posts = append(result.Posts, *ref)
		if root == nil {
			root = ref
			result.ThreadURL = ref.URL
		}
		previous = ref
		logutil.Infof("posted %d/%d to %s: %s", i+1, len(bodies), account, ref.ID)

		if i < len(bodies)-1 {
			if err := wait(ctx, p.delay); err != nil {
				result.State = ThreadInterrupted
				result.Err = PartialThreadError{
					Account:   account,
					Published: len(result.Posts),
					Total:     len(bodies),
					Cause:     err,
				}
				return result
			}
		}
	}

	result.State = ThreadComplete
	result.Success = true
	return result
}

// wait sleeps for d unless the context ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Interrupted reports whether err is a partial-thread failure.
func Interrupted(err error) bool {
	var partial PartialThreadError
	return errors.As(err, &partial)
}
