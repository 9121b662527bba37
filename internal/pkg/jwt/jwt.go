package jwt

import (
	"errors"
	"strconv"
	"time"

	"remitgate/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Identity is the employee a token is bound to
type Identity struct {
	ID         uint
	EmployeeID string
	Username   string
	Role       string
}

// Claims represents the JWT claims shared by both token types
type Claims struct {
	EmployeeID string    `json:"employee_id"`
	Username   string    `json:"username,omitempty"`
	Role       string    `json:"role,omitempty"`
	TokenType  TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims
func (c *Claims) Identity() (Identity, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return Identity{}, domain.ErrSignatureInvalid
	}
	return Identity{
		ID:         uint(id),
		EmployeeID: c.EmployeeID,
		Username:   c.Username,
		Role:       c.Role,
	}, nil
}

// Config holds the issuer settings
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues and validates signed tokens. It holds no mutable state.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager creates a token manager
func NewManager(cfg Config) *Manager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the manager reading time from now
func (m *Manager) WithClock(now func() time.Time) *Manager {
	return &Manager{cfg: m.cfg, now: now}
}

// IssueAccess generates a new access token
func (m *Manager) IssueAccess(identity Identity) (string, time.Time, error) {
	return m.issue(identity, TokenTypeAccess, m.cfg.AccessTTL)
}

// IssueRefresh generates a new refresh token
func (m *Manager) IssueRefresh(identity Identity) (string, time.Time, error) {
	return m.issue(identity, TokenTypeRefresh, m.cfg.RefreshTTL)
}

func (m *Manager) issue(identity Identity, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		EmployeeID: identity.EmployeeID,
		TokenType:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(identity.ID), 10),
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if typ == TokenTypeAccess {
		claims.Username = identity.Username
		claims.Role = identity.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretFor(typ))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer, audience, expiry and type.
// Errors are one of domain.ErrTokenExpired, domain.ErrTokenTypeMismatch,
// domain.ErrSignatureInvalid or domain.ErrIssuerAudienceMismatch.
func (m *Manager) Validate(tokenString string, expected TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		c, ok := token.Claims.(*Claims)
		if !ok {
			return nil, domain.ErrSignatureInvalid
		}
		// each type is signed with its own key
		switch c.TokenType {
		case TokenTypeAccess, TokenTypeRefresh:
			return m.secretFor(c.TokenType), nil
		}
		return nil, domain.ErrSignatureInvalid
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, domain.ErrSignatureInvalid
	}

	if claims.TokenType != expected {
		return nil, domain.ErrTokenTypeMismatch
	}
	return claims, nil
}

func (m *Manager) secretFor(typ TokenType) []byte {
	if typ == TokenTypeRefresh && m.cfg.RefreshSecret != "" {
		return []byte(m.cfg.RefreshSecret)
	}
	return []byte(m.cfg.AccessSecret)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domain.ErrIssuerAudienceMismatch
	default:
		return domain.ErrSignatureInvalid
	}
}
