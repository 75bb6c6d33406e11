package devidp

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issuer は発行するトークンのiss。
const issuer = "filegate-devidp"

// Claims は開発用トークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	// UserPrincipalName はユーザープリンシパル名。
	UserPrincipalName string `json:"upn"`
}

// GenerateToken はユーザーIDをsubに持つHS256署名のトークンを生成する。
func GenerateToken(secret string, user *User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserPrincipalName: user.UserPrincipalName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseToken はトークンの署名と有効期限を検証してクレームを返す。
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("トークンが無効です")
	}
	return claims, nil
}
