package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey is the HMAC signing key, loaded from the environment at startup.
var JwtKey = []byte("your_secret_key")

const tokenLifetime = 7 * 24 * time.Hour

// Claims carried by session tokens. Buyer tokens set UserID; the seller
// console token sets Email only.
type Claims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.StandardClaims
}

// GenerateUserToken issues a buyer session token.
func GenerateUserToken(userID string) (string, error) {
	return sign(&Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
		},
	})
}

// GenerateSellerToken issues a seller console token bound to the configured
// seller email.
func GenerateSellerToken(email string) (string, error) {
	return sign(&Claims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenLifetime).Unix(),
		},
	})
}

// ParseToken validates a token and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}
