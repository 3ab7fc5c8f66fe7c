// Package platforms wires credential slots to concrete platform clients.
// It exists apart from the core package so the registry can be built with
// fakes in tests without importing any platform SDK.
package platforms

import (
	"context"
	"fmt"

	"github.com/blacktop/xthread/internal/social"
	"github.com/blacktop/xthread/internal/social/bluesky"
	"github.com/blacktop/xthread/internal/social/linkedin"
	"github.com/blacktop/xthread/internal/social/mastodon"
	"github.com/blacktop/xthread/internal/social/x"
)

// New constructs the client for a credential slot. Used as the
// social.ClientFactory when building the registry from configuration.
func New(ctx context.Context, slot social.AccountSlot) (social.Client, error) {
	switch slot.Platform {
	case social.PlatformX:
		return x.New(ctx, *slot.X)
	case social.PlatformBluesky:
		return bluesky.New(ctx, *slot.Bluesky)
	case social.PlatformMastodon:
		return mastodon.New(ctx, *slot.Mastodon)
	case social.PlatformLinkedIn:
		return linkedin.New(ctx, *slot.LinkedIn)
	}
	return nil, fmt.Errorf("platform %q is not implemented", slot.Platform)
}
