// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package fanout

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marioparaschiv/social-dashboard/internal/config"
)

const (
	// passwordCost is the bcrypt cost used when hashing a plain configured password.
	passwordCost = 12

	tokenIssuer  = "social-dashboard"
	tokenSubject = "dashboard"
	secretLength = 32
)

var (
	// ErrInvalidPassword is returned when the password does not match.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrInvalidToken is returned for a malformed, expired or foreign session token.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is an issued session token.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Authenticator checks the shared dashboard password and issues HS256 session
// tokens so a reconnecting client can skip the password.
type Authenticator struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator builds an Authenticator from the auth config. A plain password
// is hashed here once; an empty token secret is replaced by random bytes.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		hash = []byte(cfg.PasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("password hash: %w", err)
		}
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), passwordCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("a password or password hash is required")
	}

	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, secretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Authenticator{
		hash:   hash,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// CheckPassword compares password against the configured hash.
func (a *Authenticator) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// IssueToken signs a new session token.
func (a *Authenticator) IssueToken() (Session, error) {
	now := a.now()
	id := uuid.NewString()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   tokenSubject,
		ID:        id,
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Session{Token: signed, ID: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// VerifyToken validates a session token and returns its id.
func (a *Authenticator) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(tokenSubject),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
