package sessionauth

import (
	"errors"
	"time"
)

// Config holds everything the Engine needs. Build validates it once; it is
// not read again from the caller's copy afterwards.
type Config struct {
	Token     TokenConfig
	Session   SessionConfig
	Login     LoginConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig holds the signing secret. Secret is required; the Engine
// refuses to start without it.
type TokenConfig struct {
	Secret        []byte
	SigningMethod string // "hs256" (default), "hs384", "hs512"
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and the opportunistic cleanup run
// during authorization.
type SessionConfig struct {
	TTL time.Duration
	// InlineCleanup deletes stale rows before each session lookup.
	InlineCleanup bool
	// InlineCleanupMultiplier sets the inline cutoff to now - multiplier*TTL.
	InlineCleanupMultiplier int
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig bounds accepted credentials. Lengths count characters, not
// bytes.
type LoginConfig struct {
	UsernameMaxLength int
	PasswordMaxLength int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordConfig struct {
	Memory      uint32 // in KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
	// DummyHash is verified against when the username is unknown, so both
	// paths cost one hash verification. Generated at Build when empty.
	DummyHash      string
	UpgradeOnLogin bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig throttles failed logins. It needs a Redis client.
type RateLimitConfig struct {
	Enabled          bool
	RedisPrefix      string
	EnableIPThrottle bool
	MaxLoginAttempts int
	Cooldown         time.Duration
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a Config with every field but Token.Secret set.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "hs256",
		},
		Session: SessionConfig{
			TTL:                     time.Hour,
			InlineCleanup:           true,
			InlineCleanupMultiplier: 1,
		},
		Login: LoginConfig{
			UsernameMaxLength: 20,
			PasswordMaxLength: 32,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			RedisPrefix:      "sa",
			EnableIPThrottle: true,
			MaxLoginAttempts: 5,
			Cooldown:         15 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

func (c *Config) Validate() error {
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret must be set")
	}
	switch c.Token.SigningMethod {
	case "", "hs256", "hs384", "hs512":
	default:
		return errors.New("unsupported Token SigningMethod")
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be at least one second")
	}
	// A zero window would delete just-expired rows before the lookup and
	// turn Expired into Unauthorized.
	if c.Session.InlineCleanup && c.Session.InlineCleanupMultiplier < 1 {
		return errors.New("Session InlineCleanupMultiplier must be >= 1")
	}

	if c.Login.UsernameMaxLength <= 0 {
		return errors.New("Login UsernameMaxLength must be > 0")
	}
	if c.Login.PasswordMaxLength <= 0 {
		return errors.New("Login PasswordMaxLength must be > 0")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.Cooldown <= 0 {
			return errors.New("RateLimit Cooldown must be > 0")
		}
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
