package social

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("XTHREAD_X_MAIN_API_KEY", "key")
	t.Setenv("XTHREAD_X_MAIN_API_SECRET", "secret")
	t.Setenv("XTHREAD_X_MAIN_ACCESS_TOKEN", "token")
	t.Setenv("XTHREAD_X_MAIN_ACCESS_TOKEN_SECRET", "token-secret")
	t.Setenv("XTHREAD_BLUESKY_UK_HANDLE", "uk.bsky.social")
	t.Setenv("XTHREAD_BLUESKY_UK_APP_PASSWORD", "app-pass")
	t.Setenv("XTHREAD_THREAD_DELAY", "250ms")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.True(t, cfg.XMain.complete())
	assert.False(t, cfg.XUS.complete())
	assert.True(t, cfg.BlueskyUK.complete())
	assert.Equal(t, "https://bsky.social", cfg.BlueskyUK.PDSURL)

	assert.Equal(t, 250*time.Millisecond, cfg.ThreadDelay)
	assert.Equal(t, time.Second, cfg.RepostDelay)
	assert.Equal(t, "x-main", cfg.DefaultAccount)
	assert.Equal(t, "x-main", cfg.Routing.Default)
	assert.NotEmpty(t, cfg.Routing.Keywords)
}

func TestLoadConfigRoutingFileOverride(t *testing.T) {
	routing := `
default: bluesky-main
by_category:
  grant: linkedin
by_tag:
  fedi: mastodon
keywords:
  - account: bluesky-uk
    terms: ["westminster"]
`
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routing), 0o644))
	t.Setenv("XTHREAD_ROUTING_FILE", path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "bluesky-main", cfg.Routing.Default)
	assert.Equal(t, "linkedin", cfg.Routing.ByCategory["grant"])
	assert.Equal(t, "mastodon", cfg.Routing.ByTag["fedi"])
	require.Len(t, cfg.Routing.Keywords, 1)
	assert.Equal(t, "bluesky-uk", cfg.Routing.Keywords[0].Account)

	router := NewRouter(cfg.Routing)
	assert.Equal(t, "bluesky-uk", router.Route("debate in Westminster today", nil, ""))
	assert.Equal(t, "bluesky-main", router.Route("unmatched", nil, ""))
}

func TestLoadConfigRoutingFileMissing(t *testing.T) {
	t.Setenv("XTHREAD_ROUTING_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "creds.env")
	content := "XTHREAD_MASTODON_SERVER=https://mastodon.example\nXTHREAD_MASTODON_ACCESS_TOKEN=tok\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.True(t, cfg.Mastodon.complete())

	t.Cleanup(func() {
		os.Unsetenv("XTHREAD_MASTODON_SERVER")
		os.Unsetenv("XTHREAD_MASTODON_ACCESS_TOKEN")
	})
}

func TestSlotsClosedSet(t *testing.T) {
	cfg := &Config{}
	slots := cfg.Slots()

	names := make([]string, len(slots))
	for i, slot := range slots {
		names[i] = slot.Name
	}
	assert.Equal(t, []string{
		"x-main", "x-us", "x-uk",
		"bluesky-main", "bluesky-us", "bluesky-uk",
		"mastodon", "linkedin",
	}, names)

	for _, slot := range slots {
		assert.False(t, slot.Complete(), "empty slot %s must be incomplete", slot.Name)
	}
}
