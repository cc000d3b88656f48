package web

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/krancour/guestflow/sdk"
	"github.com/pkg/errors"
)

const envconfigPrefix = "GUESTFLOW"

const (
	// SessionStoreMemory keeps browser session credentials in process memory.
	SessionStoreMemory = "memory"
	// SessionStoreRedis keeps browser session credentials in Redis so they
	// survive restarts of the dashboard.
	SessionStoreRedis = "redis"
)

// We use an exported interface to govern access to our config because the
// underlying struct has fields we don't want to expose.
type Config interface {
	Port() int
	APIAddress() string
	APIAllowInsecure() bool
	SessionStore() string
	SessionIdleTimeout() time.Duration
	CredentialsTTL() time.Duration
	CookieSecure() bool
	SearchDebounce() time.Duration
	LoginAttemptInterval() time.Duration
	LoginAttemptBurst() int
}

type config struct {
	PortAttr               int           `envconfig:"PORT"`
	APIAddressAttr         string        `envconfig:"API_ADDRESS"`
	APIAllowInsecureAttr   bool          `envconfig:"API_ALLOW_INSECURE"`
	SessionStoreAttr       string        `envconfig:"SESSION_STORE"`
	SessionIdleTimeoutAttr time.Duration `envconfig:"SESSION_IDLE_TIMEOUT"`
	CredentialsTTLAttr     time.Duration `envconfig:"CREDENTIALS_TTL"`
	CookieSecureAttr       bool          `envconfig:"COOKIE_SECURE"`
	SearchDebounceAttr     time.Duration `envconfig:"SEARCH_DEBOUNCE"`
	// Each browser may attempt to sign in LoginAttemptBurst times in quick
	// succession, then once per LoginAttemptInterval.
	LoginAttemptIntervalAttr time.Duration `envconfig:"LOGIN_ATTEMPT_INTERVAL"`
	LoginAttemptBurstAttr    int           `envconfig:"LOGIN_ATTEMPT_BURST"`
}

// NewConfigWithDefaults returns a Config object with default values already
// applied.
func NewConfigWithDefaults() Config {
	return &config{
		PortAttr:                 8080,
		APIAddressAttr:           sdk.DefaultAPIAddress,
		SessionStoreAttr:         SessionStoreMemory,
		SessionIdleTimeoutAttr:   24 * time.Hour,
		CredentialsTTLAttr:       7 * 24 * time.Hour,
		SearchDebounceAttr:       300 * time.Millisecond,
		LoginAttemptIntervalAttr: 10 * time.Second,
		LoginAttemptBurstAttr:    5,
	}
}

// GetConfigFromEnvironment returns configuration derived from GUESTFLOW_*
// environment variables
func GetConfigFromEnvironment() (Config, error) {
	c := NewConfigWithDefaults().(*config)
	if err := envconfig.Process(envconfigPrefix, c); err != nil {
		return c, errors.Wrap(err, "error getting dashboard configuration")
	}
	switch c.SessionStoreAttr {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return c, errors.Errorf(
			"unrecognized value %q for the GUESTFLOW_SESSION_STORE environment "+
				"variable; valid values are %q and %q",
			c.SessionStoreAttr,
			SessionStoreMemory,
			SessionStoreRedis,
		)
	}
	if c.APIAddressAttr == "" {
		c.APIAddressAttr = sdk.DefaultAPIAddress
	}
	return c, nil
}

func (c *config) Port() int {
	return c.PortAttr
}

func (c *config) APIAddress() string {
	return c.APIAddressAttr
}

func (c *config) APIAllowInsecure() bool {
	return c.APIAllowInsecureAttr
}

func (c *config) SessionStore() string {
	return c.SessionStoreAttr
}

func (c *config) SessionIdleTimeout() time.Duration {
	return c.SessionIdleTimeoutAttr
}

func (c *config) CredentialsTTL() time.Duration {
	return c.CredentialsTTLAttr
}

func (c *config) CookieSecure() bool {
	return c.CookieSecureAttr
}

func (c *config) SearchDebounce() time.Duration {
	return c.SearchDebounceAttr
}

func (c *config) LoginAttemptInterval() time.Duration {
	return c.LoginAttemptIntervalAttr
}

func (c *config) LoginAttemptBurst() int {
	return c.LoginAttemptBurstAttr
}
