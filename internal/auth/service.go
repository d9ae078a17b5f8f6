package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminSubject is the subject of every token issued by Login.
const AdminSubject = "admin"

const tokenTTL = 12 * time.Hour

var (
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrLoginDisabled = errors.New("admin login is not configured")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Service issues and validates admin tokens.
type Service struct {
	secret       []byte
	passwordHash []byte
	now          func() time.Time
}

// NewService builds a Service from the configured JWT secret and bcrypt hash
// of the admin password. An empty secret is replaced with a random one, so
// tokens do not survive a restart. An empty hash disables Login.
func NewService(secret, passwordHash string, log *slog.Logger) (*Service, error) {
	s := &Service{
		secret:       []byte(strings.TrimSpace(secret)),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
		now:          time.Now,
	}

	if len(s.secret) == 0 {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate JWT fallback secret: %w", err)
		}
		s.secret = []byte(base64.RawURLEncoding.EncodeToString(buf))
		if log != nil {
			log.Warn("jwt_secret is not set; using ephemeral in-memory fallback secret")
		}
	}

	if len(s.passwordHash) > 0 {
		if _, err := bcrypt.Cost(s.passwordHash); err != nil {
			return nil, fmt.Errorf("admin_password_hash is not a bcrypt hash: %w", err)
		}
	}
	return s, nil
}

// HashPassword returns the bcrypt hash to put in admin_password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}
	return string(hash), nil
}

// Login checks password against the admin hash and returns a signed token
// with its expiry.
func (s *Service) Login(password string) (string, time.Time, error) {
	if len(s.passwordHash) == 0 {
		return "", time.Time{}, ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCreds
	}
	return s.generateToken(AdminSubject)
}

func (s *Service) generateToken(subject string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses tokenString and returns its subject.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
