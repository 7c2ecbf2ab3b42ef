package auth

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// ParseUserID validates an HS256 token issued by the auth service and
// returns the numeric sub claim. Tokens are issued with sub as a JSON
// number, but string-encoded subjects are accepted too.
func ParseUserID(tokenString, secret string) (int64, error) {
	if secret == "" {
		return 0, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	switch sub := claims["sub"].(type) {
	case float64:
		if sub <= 0 {
			return 0, ErrInvalidToken
		}
		return int64(sub), nil
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || id <= 0 {
			return 0, ErrInvalidToken
		}
		return id, nil
	default:
		return 0, ErrInvalidToken
	}
}
