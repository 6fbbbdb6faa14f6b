package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:5050/api", cfg.APIBase())
	assert.Equal(t, "token", cfg.SessionCookie)
	assert.Equal(t, 250*time.Millisecond, cfg.SessionWait)
	assert.Equal(t, 0.08, cfg.TaxRate)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_URL", "http://shop-api:9000/")
	t.Setenv("API_PREFIX", "/v2")
	t.Setenv("SESSION_WAIT", "1s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("TRUST_PROXY", "1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TAX_RATE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "http://shop-api:9000/v2", cfg.APIBase())
	assert.Equal(t, time.Second, cfg.SessionWait)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 0.08, cfg.TaxRate)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	assert.NoError(t, cfg.Validate())

	bad := *cfg
	bad.APIURL = "not a url"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.LogFormat = "xml"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.RedisAddr = "redis:6379"
	assert.NoError(t, bad.Validate())
}
