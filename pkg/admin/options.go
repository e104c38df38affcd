package admin

import (
	"log/slog"

	"github.com/relves/groupsig/internal/authdata"
	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/nettime"
	"github.com/relves/groupsig/pkg/types"
)

// DefaultConcurrency bounds parallel auth data requests.
const DefaultConcurrency = 4

// Config holds service configuration.
type Config struct {
	Provider    edcrypto.Provider
	Clock       nettime.Clock
	Minter      authdata.Minter
	Logger      *slog.Logger
	Concurrency int
	// Self is skipped when building invites.
	Self types.SessionID
}

// Option configures the service.
type Option func(*Config)

// WithProvider sets the crypto provider.
func WithProvider(p edcrypto.Provider) Option {
	return func(c *Config) {
		c.Provider = p
	}
}

// WithClock sets the clock used to timestamp messages.
func WithClock(clock nettime.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithMinter sets the auth data collaborator. Invites fail without one.
func WithMinter(m authdata.Minter) Option {
	return func(c *Config) {
		c.Minter = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithConcurrency bounds parallel auth data requests. Values below 1 are
// ignored.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithSelf sets our own session id so it is never invited.
func WithSelf(id types.SessionID) Option {
	return func(c *Config) {
		c.Self = id
	}
}

func applyOptions(opts ...Option) *Config {
	cfg := &Config{Concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Provider == nil {
		cfg.Provider = edcrypto.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = nettime.NewNetworkClock(cfg.Logger)
	}
	return cfg
}
