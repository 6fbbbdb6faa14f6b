// Package session is the server-side Auth Context: it turns the visitor's
// token into a domain.Session and performs login, register and logout
// against the shop API.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/downstream"
	"github.com/industrieimport/storefront/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrRejected means the shop API no longer accepts the token.
var ErrRejected = errors.New("session_rejected")

var resolveTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "session_resolve_total",
		Help:      "Session resolutions by source",
	},
	[]string{"source"},
)

type AuthClient interface {
	Me(ctx context.Context) (domain.User, error)
	Login(ctx context.Context, cred downstream.Credentials) (downstream.LoginResult, error)
	AdminLogin(ctx context.Context, cred downstream.Credentials) (downstream.LoginResult, error)
	Register(ctx context.Context, reg downstream.Registration) (downstream.LoginResult, error)
	AdminRegister(ctx context.Context, reg downstream.Registration) (downstream.LoginResult, error)
}

type Config struct {
	// TTL is how long a resolved user is trusted before /auth/me is asked again.
	TTL time.Duration
	// Wait is how long a request blocks on an uncached lookup before the
	// visitor is shown the loading page.
	Wait time.Duration
	// LookupTimeout bounds the detached /auth/me call.
	LookupTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{TTL: 10 * time.Minute, Wait: 250 * time.Millisecond, LookupTimeout: 5 * time.Second}
}

type Manager struct {
	auth  AuthClient
	cache Cache
	cfg   Config
	group singleflight.Group
	log   zerolog.Logger

	// Logouts that land while a lookup for the same token is in flight.
	mu       sync.Mutex
	inflight map[string]int
	revoked  map[string]bool
}

func NewManager(auth AuthClient, cache Cache, cfg Config, log zerolog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Wait <= 0 {
		cfg.Wait = def.Wait
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = def.LookupTimeout
	}
	return &Manager{
		auth:     auth,
		cache:    cache,
		cfg:      cfg,
		log:      log,
		inflight: make(map[string]int),
		revoked:  make(map[string]bool),
	}
}

// Resolve returns the session for token.
func (m *Manager) Resolve(ctx context.Context, token string) domain.Session {
	s, _ := m.resolve(ctx, token, m.cfg.Wait)
	return s
}

// resolve also reports whether the API rejected the token, so the caller can
// drop the cookie. wait bounds how long an uncached lookup is awaited.
func (m *Manager) resolve(ctx context.Context, token string, wait time.Duration) (domain.Session, bool) {
	if token == "" {
		resolveTotal.WithLabelValues("anonymous").Inc()
		return domain.Anonymous(), false
	}

	u, ok, err := m.cache.Get(ctx, token)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("session cache read failed")
	}
	if ok {
		resolveTotal.WithLabelValues("cache").Inc()
		return domain.Authenticated(u, token), false
	}

	// The lookup runs on a context that survives this request, so a visitor
	// sent to the loading page finds the cache filled on the next hit.
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(tokenKey(token), func() (interface{}, error) {
		return m.lookup(detached, token)
	})

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.Err != nil {
			resolveTotal.WithLabelValues("rejected").Inc()
			return domain.Anonymous(), errors.Is(res.Err, ErrRejected)
		}
		resolveTotal.WithLabelValues("api").Inc()
		return domain.Authenticated(res.Val.(*domain.User), token), false
	case <-timer.C:
	case <-ctx.Done():
	}
	resolveTotal.WithLabelValues("loading").Inc()
	return domain.Loading(token), false
}

func (m *Manager) lookup(ctx context.Context, token string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.LookupTimeout)
	defer cancel()

	key := tokenKey(token)
	m.begin(key)
	defer m.end(key)

	u, err := m.auth.Me(downstream.WithToken(ctx, token))
	if err != nil {
		if errors.Is(err, downstream.ErrUnauthorized) || errors.Is(err, downstream.ErrNotFound) || errors.Is(err, downstream.ErrForbidden) {
			if err := m.cache.Delete(ctx, token); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("session cache delete failed")
			}
			return nil, ErrRejected
		}
		logger.Ctx(ctx).Warn().Err(err).Msg("session lookup failed")
		return nil, err
	}
	if u.ID == "" && u.Email == "" {
		return nil, ErrRejected
	}

	if err := m.cache.Set(ctx, token, u, m.cfg.TTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("session cache write failed")
	}
	// Logout marks the token before evicting, so checking after the write
	// catches a logout on either side of it.
	if m.isRevoked(key) {
		if err := m.cache.Delete(ctx, token); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("session cache delete failed")
		}
		return nil, ErrRejected
	}
	return &u, nil
}

// Login authenticates against the user or admin endpoint. A successful
// result with a token primes the cache so the next page skips /auth/me.
func (m *Manager) Login(ctx context.Context, cred downstream.Credentials, admin bool) (downstream.LoginResult, error) {
	var (
		res downstream.LoginResult
		err error
	)
	if admin {
		res, err = m.auth.AdminLogin(ctx, cred)
	} else {
		res, err = m.auth.Login(ctx, cred)
	}
	if err != nil {
		return res, err
	}
	if res.Token == "" && !res.PendingApproval {
		return res, domain.ErrInvalidCredentials
	}
	m.remember(ctx, res)
	return res, nil
}

func (m *Manager) Register(ctx context.Context, reg downstream.Registration, admin bool) (downstream.LoginResult, error) {
	var (
		res downstream.LoginResult
		err error
	)
	if admin {
		res, err = m.auth.AdminRegister(ctx, reg)
	} else {
		res, err = m.auth.Register(ctx, reg)
	}
	if err != nil {
		return res, err
	}
	m.remember(ctx, res)
	return res, nil
}

// Update replaces the cached user, used after a profile edit.
func (m *Manager) Update(ctx context.Context, token string, u domain.User) {
	if token == "" {
		return
	}
	if err := m.cache.Set(ctx, token, u, m.cfg.TTL); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("session cache write failed")
	}
}

func (m *Manager) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	key := tokenKey(token)
	m.group.Forget(key)
	m.mu.Lock()
	if m.inflight[key] > 0 {
		m.revoked[key] = true
	}
	m.mu.Unlock()
	if err := m.cache.Delete(ctx, token); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("session cache delete failed")
	}
}

func (m *Manager) remember(ctx context.Context, res downstream.LoginResult) {
	if res.Token == "" || res.User == nil {
		return
	}
	m.Update(ctx, res.Token, *res.User)
}

func (m *Manager) begin(key string) {
	m.mu.Lock()
	m.inflight[key]++
	m.mu.Unlock()
}

func (m *Manager) end(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[key]--; m.inflight[key] <= 0 {
		delete(m.inflight, key)
		delete(m.revoked, key)
	}
}

func (m *Manager) isRevoked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[key]
}
