package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the HMAC variant used to sign session tokens.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA-256. It is the default.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA-384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA-512.
	MethodHS512 SigningMethod = "hs512"
)

var (
	// ErrMalformed is returned when the token is not a well-formed signed envelope.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when the signature does not verify under the secret.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrUnexpectedAlgorithm is returned when the token header names another algorithm.
	ErrUnexpectedAlgorithm = errors.New("unexpected signing algorithm")
	// ErrInvalidPayload is returned when the payload carries no usable session id.
	ErrInvalidPayload = errors.New("invalid token payload")
)

// Config configures a [Codec].
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
}

// Codec encodes session ids into signed tokens and decodes them back.
//
// The secret is copied at construction and never mutated afterwards, so a
// Codec is safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

// SessionClaims is the only payload a token carries.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	method, err := resolveMethod(cfg.SigningMethod)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{secret: secret, method: method}, nil
}

// Encode signs a token whose payload is sessionID.
func (c *Codec) Encode(sessionID uuid.UUID) (string, error) {
	claims := SessionClaims{SessionID: sessionID.String()}
	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.secret)
}

// Decode verifies token and returns the session id it carries.
//
// Decode fails with one of [ErrMalformed], [ErrSignatureInvalid],
// [ErrUnexpectedAlgorithm] or [ErrInvalidPayload]. No standard claims are
// required.
func (c *Codec) Decode(tokenStr string) (uuid.UUID, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{c.method.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, ErrUnexpectedAlgorithm
		}
		return c.secret, nil
	})
	if err != nil {
		return uuid.Nil, c.classify(token, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidPayload
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidPayload
	}

	return id, nil
}

func (c *Codec) classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, ErrUnexpectedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnexpectedAlgorithm
	case token != nil && token.Method != nil && token.Method.Alg() != c.method.Alg():
		return ErrUnexpectedAlgorithm
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	default:
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
}

func resolveMethod(m SigningMethod) (jwt.SigningMethod, error) {
	switch m {
	case "", MethodHS256:
		return jwt.SigningMethodHS256, nil
	case MethodHS384:
		return jwt.SigningMethodHS384, nil
	case MethodHS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, errors.New("unsupported signing method")
	}
}
