package ticket

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 描述一张恢复票据：会话 id 与连接时分配的用户名。
// 票据只证明“这是同一条逻辑会话”，不承载任何用户身份或权限。
type Claims struct {
	SessionID string `json:"sid"`
	Username  string `json:"uname"`
	jwt.RegisteredClaims
}

func Issue(sessionID, username, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid ticket")
}
