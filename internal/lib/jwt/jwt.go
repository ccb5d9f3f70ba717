package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeSession = "session"

var ErrInvalidToken = errors.New("invalid token")

// Claims is what a session token carries about its holder.
type Claims struct {
	UserID    string
	Email     string
	Role      entity.Role
	ExpiresAt time.Time
}

func NewToken(user entity.User, secret string, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)

	claims["uid"] = user.ID
	claims["email"] = user.Email
	claims["role"] = string(user.Role)
	claims["typ"] = tokenTypeSession
	claims["exp"] = time.Now().Add(ttl).Unix()

	return token.SignedString([]byte(secret))
}

// Parse verifies the signature and expiry of a session token.
func Parse(tokenString, secret string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	if typ, ok := claims["typ"].(string); !ok || typ != tokenTypeSession {
		return Claims{}, fmt.Errorf("%w: unexpected token type %v", ErrInvalidToken, claims["typ"])
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return Claims{}, fmt.Errorf("%w: exp claim is missing", ErrInvalidToken)
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return Claims{}, fmt.Errorf("%w: uid claim is missing", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return Claims{
		UserID:    uid,
		Email:     email,
		Role:      entity.Role(role),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
