package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/examsafe/examsafe/internal/pkg/apperrors"
)

// JWTConfig defines session token configuration settings
type JWTConfig struct {
	SecretKey   string
	SessionExp  time.Duration
	TokenIssuer string
}

// JWTService issues and validates wallet-session tokens
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{
		config: config,
	}
}

// Claims defines session token content
type Claims struct {
	Address   string `json:"address"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// GenerateSessionToken creates a session token bound to an account address.
func (s *JWTService) GenerateSessionToken(address string) (token string, sessionID string, expiresIn int, err error) {
	sessionID = uuid.New().String()
	expiry := time.Now().Add(s.config.SessionExp)

	claims := &Claims{
		Address:   address,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.config.TokenIssuer,
			Subject:   address,
			ID:        sessionID,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create session token: %w", err)
	}

	expiresIn = int(s.config.SessionExp.Seconds())
	return token, sessionID, expiresIn, nil
}

// ValidateToken validates a session token and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, apperrors.ErrTokenInvalid
}

// SessionFromToken validates a token and builds the session context it carries.
func (s *JWTService) SessionFromToken(tokenString string) (*Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Session{Address: claims.Address, ID: claims.SessionID}, nil
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", apperrors.ErrTokenInvalid
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", apperrors.ErrTokenInvalid
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}
