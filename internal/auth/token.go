// Package auth issues and verifies bearer tokens and wraps password hashing.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/oggyb/acquaintance/internal/errors"
)

var (
	// ErrInvalidToken is returned when the signature, algorithm or claims do not check out.
	ErrInvalidToken = apperr.Unauthorized("invalid token")
	// ErrExpiredToken is returned once now >= expiresAt.
	ErrExpiredToken = apperr.Unauthorized("token has expired")
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

// Subject is the identity a token is issued for.
type Subject struct {
	ID       uint64
	Username string
}

// Claims is the JWT payload.
type Claims struct {
	UserID   uint64 `json:"uid"`
	Username string `json:"unique_name"`
	jwt.RegisteredClaims
}

// Token is an issued bearer token together with its decoded lifetime.
type Token struct {
	Value     string
	Subject   Subject
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IssuerConfig is injected at construction; the issuer never reads process config.
type IssuerConfig struct {
	SigningKey []byte
	TTL        time.Duration
	Issuer     string
}

// Issuer signs and verifies HMAC-SHA512 tokens. It is stateless and safe for concurrent use.
type Issuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates the config and builds an Issuer.
func NewIssuer(cfg IssuerConfig, opts ...Option) (*Issuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("token signing key is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{
		key:    append([]byte(nil), cfg.SigningKey...),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for s valid over [now, now+ttl).
func (i *Issuer) Issue(s Subject) (Token, error) {
	if s.ID == 0 {
		return Token{}, fmt.Errorf("cannot issue token for empty subject")
	}

	now := i.now().Truncate(time.Second)
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID:   s.ID,
		Username: s.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(s.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.key)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{Value: signed, Subject: s, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm, issuer and lifetime and returns the subject.
func (i *Issuer) Verify(raw string) (Subject, error) {
	claims := &Claims{}
	parseOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if i.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(i.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, parseOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Subject{}, ErrExpiredToken
		}
		return Subject{}, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == 0 || claims.Subject != strconv.FormatUint(claims.UserID, 10) {
		return Subject{}, ErrInvalidToken
	}

	return Subject{ID: claims.UserID, Username: claims.Username}, nil
}

// TTL reports the configured token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }
