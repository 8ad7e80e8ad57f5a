package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoSigningKey  = errors.New("no signing key configured")
	DefaultTTL       = time.Hour
	defaultIssuer    = "arena-watch"
	currentKeyID     = "v1"
	supportedMethods = []string{jwt.SigningMethodHS256.Alg()}
)

type Role string

const (
	Operator Role = "operator"
	Viewer   Role = "viewer"
)

type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewManager(signingKey string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{signingKey: []byte(signingKey), ttl: ttl}
}

// Enabled reports whether tokens can be minted and checked
func (m *Manager) Enabled() bool {
	return len(m.signingKey) > 0
}

func (m *Manager) GenerateOperatorToken(name string) (string, error) {
	return m.generateToken(name, Operator, m.ttl)
}

func (m *Manager) generateToken(subject string, role Role, duration time.Duration) (string, error) {
	if !m.Enabled() {
		return "", ErrNoSigningKey
	}
	now := time.Now().UTC()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    defaultIssuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(), // jti
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = currentKeyID

	return token.SignedString(m.signingKey)
}

func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrNoSigningKey
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	}, jwt.WithValidMethods(supportedMethods), jwt.WithIssuer(defaultIssuer))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
