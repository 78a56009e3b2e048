// Package jwtmw はアクセストークン（JWT）の発行・検証と、Gin用の認証ミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はアクセストークンのデフォルト有効期間です。
const DefaultTTL = 30 * time.Minute

// Claims はアクセストークンのペイロードです。
// user_id と exp（RegisteredClaims.ExpiresAt）がトークンの意味を構成します。
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Generator はJWTトークン生成のインターフェースを定義します。
type Generator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID uint) (string, error)
}

// generator はHS256で署名するGeneratorの実装です。
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator は指定されたシークレットと有効期間でJWTジェネレーターを生成します。
// expiration が0の場合はDefaultTTLを使用します。
func NewGenerator(secret string, expiration time.Duration) *generator {
	if expiration == 0 {
		expiration = DefaultTTL
	}
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken は user_id と exp を含む署名済みトークンを生成します。
func (g *generator) GenerateToken(userID uint) (string, error) {
	if userID == 0 {
		return "", errors.New("user id must not be zero")
	}
	now := g.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
