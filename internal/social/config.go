package social

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Platform identifiers used by account slots and clients.
const (
	PlatformX        = "x"
	PlatformBluesky  = "bluesky"
	PlatformMastodon = "mastodon"
	PlatformLinkedIn = "linkedin"
)

// XCredentials are the OAuth 1.0a user-context secrets for one X account.
type XCredentials struct {
	APIKey       string `env:"API_KEY"`
	APISecret    string `env:"API_SECRET"`
	AccessToken  string `env:"ACCESS_TOKEN"`
	AccessSecret string `env:"ACCESS_TOKEN_SECRET"`
}

func (c XCredentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// BlueskyCredentials identify one Bluesky account on a PDS.
type BlueskyCredentials struct {
	Handle      string `env:"HANDLE"`
	AppPassword string `env:"APP_PASSWORD"`
	PDSURL      string `env:"PDS_URL" envDefault:"https://bsky.social"`
}

func (c BlueskyCredentials) complete() bool {
	return c.Handle != "" && c.AppPassword != ""
}

// MastodonCredentials identify one Mastodon account.
type MastodonCredentials struct {
	Server      string `env:"SERVER"`
	AccessToken string `env:"ACCESS_TOKEN"`
}

func (c MastodonCredentials) complete() bool {
	return c.Server != "" && c.AccessToken != ""
}

// LinkedInCredentials hold the webhook relay endpoint used for LinkedIn.
type LinkedInCredentials struct {
	WebhookURL string `env:"WEBHOOK_URL"`
}

func (c LinkedInCredentials) complete() bool {
	return c.WebhookURL != ""
}

// Config is the explicit configuration built once at startup and injected
// into the registry constructor. Each field below the credential block is
// a tunable with a sensible default.
type Config struct {
	XMain XCredentials `envPrefix:"XTHREAD_X_MAIN_"`
	XUS   XCredentials `envPrefix:"XTHREAD_X_US_"`
	XUK   XCredentials `envPrefix:"XTHREAD_X_UK_"`

	BlueskyMain BlueskyCredentials `envPrefix:"XTHREAD_BLUESKY_MAIN_"`
	BlueskyUS   BlueskyCredentials `envPrefix:"XTHREAD_BLUESKY_US_"`
	BlueskyUK   BlueskyCredentials `envPrefix:"XTHREAD_BLUESKY_UK_"`

	Mastodon MastodonCredentials `envPrefix:"XTHREAD_MASTODON_"`
	LinkedIn LinkedInCredentials `envPrefix:"XTHREAD_LINKEDIN_"`

	DefaultAccount string        `env:"XTHREAD_DEFAULT_ACCOUNT" envDefault:"x-main"`
	ThreadDelay    time.Duration `env:"XTHREAD_THREAD_DELAY" envDefault:"2s"`
	RepostDelay    time.Duration `env:"XTHREAD_REPOST_DELAY" envDefault:"1s"`
	RoutingFile    string        `env:"XTHREAD_ROUTING_FILE"`

	Routing RoutingConfig `env:"-"`
}

// AccountSlot pairs a logical account name with its platform and the
// credentials configured for it. Exactly one credential pointer is set,
// matching the platform.
type AccountSlot struct {
	Name     string
	Platform string

	X        *XCredentials
	Bluesky  *BlueskyCredentials
	Mastodon *MastodonCredentials
	LinkedIn *LinkedInCredentials
}

// Complete reports whether every required credential field is present.
func (s AccountSlot) Complete() bool {
	switch s.Platform {
	case PlatformX:
		return s.X != nil && s.X.complete()
	case PlatformBluesky:
		return s.Bluesky != nil && s.Bluesky.complete()
	case PlatformMastodon:
		return s.Mastodon != nil && s.Mastodon.complete()
	case PlatformLinkedIn:
		return s.LinkedIn != nil && s.LinkedIn.complete()
	}
	return false
}

// Slots enumerates the closed set of logical account names in a fixed
// order. Slots with incomplete credentials are still returned; the
// registry decides what to do with them.
func (c *Config) Slots() []AccountSlot {
	return []AccountSlot{
		{Name: "x-main", Platform: PlatformX, X: &c.XMain},
		{Name: "x-us", Platform: PlatformX, X: &c.XUS},
		{Name: "x-uk", Platform: PlatformX, X: &c.XUK},
		{Name: "bluesky-main", Platform: PlatformBluesky, Bluesky: &c.BlueskyMain},
		{Name: "bluesky-us", Platform: PlatformBluesky, Bluesky: &c.BlueskyUS},
		{Name: "bluesky-uk", Platform: PlatformBluesky, Bluesky: &c.BlueskyUK},
		{Name: "mastodon", Platform: PlatformMastodon, Mastodon: &c.Mastodon},
		{Name: "linkedin", Platform: PlatformLinkedIn, LinkedIn: &c.LinkedIn},
	}
}

// LoadConfig reads configuration from the environment, optionally seeded
// from a dotenv file, and merges routing rules from a YAML file when one
// is configured.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		// Best effort, matching dotenv semantics: a missing .env is fine.
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Routing = DefaultRouting()
	if cfg.RoutingFile != "" {
		routing, err := LoadRouting(cfg.RoutingFile)
		if err != nil {
			return nil, err
		}
		cfg.Routing = routing
	}
	if cfg.Routing.Default == "" {
		cfg.Routing.Default = cfg.DefaultAccount
	}

	return cfg, nil
}

// LoadRouting reads a YAML routing-rule file.
func LoadRouting(path string) (RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RoutingConfig{}, fmt.Errorf("read routing file: %w", err)
	}
	var routing RoutingConfig
	if err := yaml.Unmarshal(data, &routing); err != nil {
		return RoutingConfig{}, fmt.Errorf("parse routing file: %w", err)
	}
	return routing, nil
}
