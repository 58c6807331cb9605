package config

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackURLIsHTTP(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^https?://`), FallbackURL)
}

func TestResolveBaseURL(t *testing.T) {
	cases := []struct {
		name       string
		classic    string
		public     string
		wantResult string
	}{
		{"no overrides", "", "", FallbackURL},
		{"blank overrides", "  ", "", FallbackURL},
		{"classic wins", "http://erp:8080/etendo/", "http://other", "http://erp:8080/etendo"},
		{"public when classic empty", "", "https://public.example.com/etendo", "https://public.example.com/etendo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantResult, ResolveBaseURL(tc.classic, tc.public))
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ETENDO_CLASSIC_URL", "http://classic:8080/etendo")
	t.Setenv("CACHE_DURATION", "90s")
	t.Setenv("DATASOURCE_CACHE_ENTITIES", "Country, Currency,,")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://classic:8080/etendo", cfg.ERPBaseURL())
	assert.Equal(t, 90*time.Second, cfg.CacheDuration)
	assert.Equal(t, defaultAppPort, cfg.AppPort)
	assert.Equal(t, map[string]bool{"Country": true, "Currency": true}, cfg.CachedEntities())
	assert.NotContains(t, cfg.String(), "secret")
}

func TestLoadFromEnvRejectsNegativeDuration(t *testing.T) {
	t.Setenv("CACHE_DURATION", "-1s")
	_, err := LoadFromEnv()
	assert.Error(t, err)
}
