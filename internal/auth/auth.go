package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quangtn/voicelink/internal/config"
	"github.com/quangtn/voicelink/internal/model"
)

type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secretKey() []byte {
	secret := config.AppConfig.Auth.JWTSecret
	if secret == "" {
		secret = "YOUR_SECRET_KEY_CHANGE_IN_PROD"
	}
	return []byte(secret)
}

func tokenExpiry() time.Duration {
	if d, err := time.ParseDuration(config.AppConfig.Auth.TokenExpiry); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

func GenerateToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(tokenExpiry())
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
