package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"darsly/internal/models"
)

const (
	TokenPurposeAccess    = "access"
	TokenPurposeTwoFactor = "2fa"
)

type Claims struct {
	ID      string      `json:"id"`
	Role    models.Role `json:"role,omitempty"`
	Purpose string      `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateAccessToken mints a full session token carrying the user's role.
func GenerateAccessToken(secret []byte, userID primitive.ObjectID, role models.Role, ttl time.Duration) (string, error) {
	claims := &Claims{
		ID:      userID.Hex(),
		Role:    role,
		Purpose: TokenPurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateTempToken mints the short-lived token handed out between the
// password check and the TOTP check. It carries no role and a distinct
// purpose, so it can never pass the auth middleware.
func GenerateTempToken(secret []byte, userID primitive.ObjectID, ttl time.Duration) (token string, jti string, err error) {
	buf := make([]byte, 16)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	jti = base64.RawURLEncoding.EncodeToString(buf)

	claims := &Claims{
		ID:      userID.Hex(),
		Purpose: TokenPurposeTwoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	return token, jti, err
}

// ParseToken validates the signature and expiry and checks the purpose claim.
func ParseToken(secret []byte, tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose mismatch")
	}
	return claims, nil
}
