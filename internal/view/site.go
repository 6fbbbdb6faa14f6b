package view

import (
	"context"
	"sync"
	"time"

	"github.com/industrieimport/storefront/internal/domain"
	"github.com/industrieimport/storefront/internal/logger"
)

type SettingsSource interface {
	Settings(ctx context.Context) (domain.SiteSettings, error)
}

// SiteInfo is the site context: the shop name shown in every title. The name
// configured at start-up is used until the settings API answers.
type SiteInfo struct {
	fallback string
	src      SettingsSource
	ttl      time.Duration
	budget   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	name    string
	fetched time.Time
}

func NewSiteInfo(fallback string, src SettingsSource) *SiteInfo {
	return &SiteInfo{
		fallback: fallback,
		src:      src,
		ttl:      5 * time.Minute,
		budget:   300 * time.Millisecond,
		now:      time.Now,
	}
}

func (s *SiteInfo) Name(ctx context.Context) string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil || (!s.fetched.IsZero() && s.now().Sub(s.fetched) < s.ttl) {
		return s.current()
	}

	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()
	settings, err := s.src.Settings(ctx)
	s.fetched = s.now()
	if err != nil {
		logger.Ctx(ctx).Debug().Err(err).Msg("site settings unavailable")
		return s.current()
	}
	s.name = settings.SiteName
	return s.current()
}

// Set replaces the cached name after an admin edit.
func (s *SiteInfo) Set(name string) {
	s.mu.Lock()
	s.name = name
	s.fetched = s.now()
	s.mu.Unlock()
}

func (s *SiteInfo) current() string {
	if s.name != "" {
		return s.name
	}
	return s.fallback
}
