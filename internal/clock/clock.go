package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/tallyops/reportdesk-backend/pkg/errors"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
)

// InvalidTimestamp is returned by FormatTimestamp for unusable instants.
const InvalidTimestamp = "invalid"

const cacheTTL = 10 * time.Minute

// SettingSource reads the persisted timezone setting.
type SettingSource interface {
	Value(ctx context.Context, key string) (string, error)
}

// Cache is the shared cache surface backing cross-instance invalidation.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service resolves the console display timezone and performs day-boundary
// arithmetic in it. Resolution never fails; on any store or cache trouble it
// falls back to the configured default.
type Service struct {
	source     SettingSource
	cache      Cache
	logg       *logger.Logger
	defaultTZ  string
	settingKey string

	mu    sync.Mutex
	local string
}

// NewService builds a clock service with the required dependencies.
func NewService(source SettingSource, cache Cache, defaultTZ, settingKey string, logg *logger.Logger) *Service {
	if defaultTZ == "" {
		defaultTZ = "Asia/Shanghai"
	}
	return &Service{
		source:     source,
		cache:      cache,
		logg:       logg,
		defaultTZ:  defaultTZ,
		settingKey: settingKey,
	}
}

// ResolveTimezone returns the canonical timezone identifier. Cached values
// win; otherwise the persisted setting is consulted, and on any failure the
// default applies. The returned identifier always loads.
func (s *Service) ResolveTimezone(ctx context.Context) string {
	s.mu.Lock()
	if s.local != "" {
		tz := s.local
		s.mu.Unlock()
		return tz
	}
	s.mu.Unlock()

	tz := s.lookup(ctx)
	if _, err := time.LoadLocation(tz); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "timezone", tz), "configured timezone invalid, using default")
		}
		tz = s.defaultTZ
		if _, err := time.LoadLocation(tz); err != nil {
			tz = "UTC"
		}
	}

	s.remember(ctx, tz)
	return tz
}

func (s *Service) lookup(ctx context.Context) string {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.cacheKey()); err == nil && cached != "" {
			return cached
		}
	}
	if s.source != nil {
		if value, err := s.source.Value(ctx, s.settingKey); err == nil && value != "" {
			return value
		}
	}
	return s.defaultTZ
}

func (s *Service) remember(ctx context.Context, tz string) {
	s.mu.Lock()
	s.local = tz
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey(), tz, cacheTTL); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "failed to cache timezone setting")
		}
	}
}

// Invalidate clears the cached timezone so the next resolution re-reads the
// persisted setting. Call after an administrator changes the setting.
func (s *Service) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.local = ""
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cacheKey()); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "failed to drop cached timezone setting")
		}
	}
}

func (s *Service) cacheKey() string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey("setting", s.settingKey)
}

// Location returns the resolved timezone as a *time.Location.
func (s *Service) Location(ctx context.Context) *time.Location {
	loc, err := time.LoadLocation(s.ResolveTimezone(ctx))
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatTimestamp renders an instant in the resolved timezone with a 24-hour
// clock. Unusable instants yield the InvalidTimestamp sentinel.
func (s *Service) FormatTimestamp(ctx context.Context, t time.Time, includeSeconds bool) string {
	if t.IsZero() {
		return InvalidTimestamp
	}
	layout := "2006-01-02 15:04"
	if includeSeconds {
		layout = "2006-01-02 15:04:05"
	}
	return t.In(s.Location(ctx)).Format(layout)
}

// DayBounds returns the first and last instants of the given YYYY-MM-DD
// calendar date in tz (or the resolved timezone when tz is empty). The
// boundaries are computed from civil time in the target zone; the host's
// local offset never participates.
func (s *Service) DayBounds(ctx context.Context, date string, tz string) (time.Time, time.Time, error) {
	loc := s.Location(ctx)
	if tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("unknown timezone %q", tz))
		}
		loc = parsed
	}

	start, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid calendar date %q", date))
	}

	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end, nil
}
