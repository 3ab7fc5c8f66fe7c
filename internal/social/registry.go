package social

import (
	"context"
	"sort"

	"github.com/blacktop/xthread/internal/logutil"
)

// Account binds a logical account name to its platform client.
type Account struct {
	Name     string
	Platform string
	Client   Client
}

// ClientFactory constructs a platform client for a credential slot. The
// slot is guaranteed complete when the factory is called.
type ClientFactory func(ctx context.Context, slot AccountSlot) (Client, error)

// Registry maps logical account names to platform clients. It is
// immutable after construction and safe for concurrent reads.
type Registry struct {
	accounts map[string]*Account
}

// NewRegistry builds a registry from pre-constructed accounts.
func NewRegistry(accounts ...*Account) *Registry {
	reg := &Registry{accounts: make(map[string]*Account, len(accounts))}
	for _, account := range accounts {
		reg.accounts[account.Name] = account
	}
	return reg
}

// BuildRegistry enumerates the configured credential slots and constructs
// a client for each complete one. Slots with missing or partial
// credentials are excluded silently; a complete slot whose client fails
// to construct (for example a rejected login) is excluded with a warning.
// Either way the remaining accounts still become available.
func BuildRegistry(ctx context.Context, cfg *Config, factory ClientFactory) *Registry {
	reg := &Registry{accounts: make(map[string]*Account)}

	for _, slot := range cfg.Slots() {
		if !slot.Complete() {
			logutil.Debugf("skipping account %s: credentials not configured", slot.Name)
			continue
		}
		client, err := factory(ctx, slot)
		if err != nil {
			logutil.Warnf("skipping account %s: %v", slot.Name, err)
			continue
		}
		reg.accounts[slot.Name] = &Account{
			Name:     slot.Name,
			Platform: slot.Platform,
			Client:   client,
		}
		logutil.Debugf("configured account %s (%s)", slot.Name, slot.Platform)
	}

	return reg
}

// Resolve returns the account for a logical name.
func (r *Registry) Resolve(name string) (*Account, error) {
	account, ok := r.accounts[name]
	if !ok {
		return nil, UnknownAccountError{Name: name}
	}
	return account, nil
}

// Names returns the configured account names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.accounts))
	for name := range r.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
