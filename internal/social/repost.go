package social

import (
	"context"
	"time"

	"github.com/blacktop/xthread/internal/logutil"
)

const defaultRepostDelay = 1 * time.Second

// Orchestrator fans a repost action out to secondary accounts. Target
// accounts are attempted strictly in order with a courtesy delay between
// them; one account's failure never prevents attempts on the rest.
type Orchestrator struct {
	registry *Registry
	delay    time.Duration
}

// OrchestratorOption adjusts orchestrator behavior.
type OrchestratorOption func(*Orchestrator)

// WithRepostDelay overrides the courtesy delay between target accounts.
func WithRepostDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.delay = d }
}

// NewOrchestrator builds a repost orchestrator over the registry.
func NewOrchestrator(registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	orch := &Orchestrator{
		registry: registry,
		delay:    defaultRepostDelay,
	}
	for _, opt := range opts {
		opt(orch)
	}
	return orch
}

// Repost reshares ref from each target account, independently. When the
// reference lacks its content digest, exactly one resolution attempt is
// made per account before its repost call; a failed resolution records a
// failure for that account and no repost is issued for it. A successful
// resolution is reused for the remaining targets. Results are keyed by
// target account name and tagged with the source account.
func (o *Orchestrator) Repost(ctx context.Context, ref PostReference, from string, targets []string) map[string]RepostOutcome {
	results := make(map[string]RepostOutcome, len(targets))
	working := ref

	for i, name := range targets {
		if i > 0 {
			if err := wait(ctx, o.delay); err != nil {
				results[name] = o.cancelledOutcome(name, from, err)
				continue
			}
		}
		results[name] = o.repostOne(ctx, &working, from, name)
	}

	return results
}

// cancelledOutcome records a target whose courtesy delay was cut short by
// the context, keeping the failure inside the structured taxonomy.
func (o *Orchestrator) cancelledOutcome(name, from string, cause error) RepostOutcome {
	outcome := RepostOutcome{Account: name, From: from}
	account, err := o.registry.Resolve(name)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Err = PublishError{Provider: account.Platform, Account: name, Cause: cause}
	return outcome
}

func (o *Orchestrator) repostOne(ctx context.Context, ref *PostReference, from, name string) RepostOutcome {
	outcome := RepostOutcome{Account: name, From: from}

	account, err := o.registry.Resolve(name)
	if err != nil {
		logutil.Warnf("repost skipped for %s: %v", name, err)
		outcome.Err = err
		return outcome
	}

	if ref.Digest == "" {
		digest, err := account.Client.LookupDigest(ctx, ref.ID)
		if err != nil {
			resolveErr := DigestResolutionError{Provider: account.Platform, ID: ref.ID, Cause: err}
			logutil.Warnf("repost skipped for %s: %v", name, resolveErr)
			outcome.Err = resolveErr
			return outcome
		}
		// Empty means the platform does not content-address posts; a
		// resolved digest is kept for the remaining targets.
		ref.Digest = digest
	}

	reposted, err := account.Client.Repost(ctx, *ref)
	if err != nil {
		logutil.Errorf("repost failed for %s: %v", name, err)
		outcome.Err = PublishError{Provider: account.Platform, Account: name, Cause: err}
		return outcome
	}

	logutil.Infof("%s reposted %s from %s", name, ref.ID, from)
	outcome.Success = true
	outcome.Reference = reposted
	return outcome
}
