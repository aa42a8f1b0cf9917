package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidKey   = errors.New("invalid key")
)

// MinSecretLength is the shortest accepted HS256 key
const MinSecretLength = 32

// Claims wraps a session token in registered JWT claims
type Claims struct {
	gojwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Service signs and validates session cookie tokens
type Service struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Config holds the signing settings
type Config struct {
	Secret []byte
	Issuer string
}

// NewService creates a signing service
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidKey, MinSecretLength)
	}
	return &Service{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// Sign produces the cookie value for sessionID
func (s *Service) Sign(sessionID string, expiresAt time.Time) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry and returns the claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
