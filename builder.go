package sessionauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/thejerf/abtime"
	"gorm.io/gorm"

	"github.com/MrEthical07/sessionauth/account"
	"github.com/MrEthical07/sessionauth/internal/rate"
	"github.com/MrEthical07/sessionauth/jwt"
	"github.com/MrEthical07/sessionauth/password"
	"github.com/MrEthical07/sessionauth/session"
)

// Builder collects configuration and dependencies for an Engine. Configure
// it during start-up and call Build once.
type Builder struct {
	config Config
	db     *gorm.DB
	redis  redis.UniversalClient
	logger *slog.Logger
	clock  abtime.AbstractTime

	built bool
}

func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The secret is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the token signing secret.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Token.Secret = cloneBytes(secret)
	return b
}

// WithDB sets the database holding the session and account tables. It is
// required.
func (b *Builder) WithDB(db *gorm.DB) *Builder {
	b.db = db
	return b
}

// WithRedis sets the client backing the login throttle. Without it the
// throttle stays off.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces the real clock used for session expiry arithmetic.
func (b *Builder) WithClock(clock abtime.AbstractTime) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine. A Builder can be
// used only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.db == nil {
		return nil, errors.New("database required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	clock := b.clock
	if clock == nil {
		clock = abtime.NewRealTime()
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:        cloneBytes(cfg.Token.Secret),
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewHasher(password.Argon2Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	}, cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	dummyHash := cfg.Password.DummyHash
	if dummyHash == "" {
		dummyHash, err = randomHash(hasher)
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:    cfg,
		codec:     codec,
		sessions:  session.NewStore(b.db, cfg.Session.TTL, clock),
		accounts:  account.NewStore(b.db),
		hasher:    hasher,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger,
		dummyHash: dummyHash,
	}

	// -------- LOGIN THROTTLE --------
	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.RateLimit.RedisPrefix,
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			Cooldown:         cfg.RateLimit.Cooldown,
		})
	}

	b.built = true

	return engine, nil
}

func randomHash(h *password.Hasher) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return h.Hash(hex.EncodeToString(buf))
}
