package service

import (
	"log/slog"
	"time"
)

// Option customizes a service
type Option func(*settings)

type settings struct {
	now    func() time.Time
	logger *slog.Logger
}

func defaultSettings() settings {
	return settings{
		now:    time.Now,
		logger: slog.Default(),
	}
}

// WithClock replaces the wall clock used to resolve "today"
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}

// WithLogger sets the logger used for background and cache messages
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// today truncates the clock to a UTC calendar day
func (s settings) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
