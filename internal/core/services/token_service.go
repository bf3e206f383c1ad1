package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comitanigiacomo/kanso-habits/internal/utils"
)

// TokenService issues and checks the bearer tokens that guard the HTTP API.
// The tracker has a single owner; only tokens minted for that owner are valid.
type TokenService struct {
	secretKey     []byte
	issuer        string
	owner         string
	tokenDuration time.Duration
	clock         utils.Clock
}

func NewTokenService(secretKey, issuer, owner string, tokenDuration time.Duration, clock utils.Clock) *TokenService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &TokenService{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		owner:         owner,
		tokenDuration: tokenDuration,
		clock:         clock,
	}
}

func (s *TokenService) GenerateToken() (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub": s.owner,
		"exp": now.Add(s.tokenDuration).Unix(),
		"iat": now.Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("token service: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken returns the token subject.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.clock.Now))

	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if iss, ok := claims["iss"].(string); !ok || iss != s.issuer {
			return "", fmt.Errorf("invalid token issuer")
		}

		subject, ok := claims["sub"].(string)
		if !ok || subject != s.owner {
			return "", fmt.Errorf("invalid token subject")
		}

		return subject, nil
	}

	return "", fmt.Errorf("invalid token claims")
}
