package jwtmw

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

var (
	// ErrMissingBearer はAuthorizationヘッダーが無い、または "Bearer <token>" 形式でない場合に返されます。
	ErrMissingBearer = errors.New("no auth provided")
	// ErrTokenInvalid は署名・構造・アルゴリズム・ペイロードのいずれかが不正な場合に返されます。
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired は署名は正しいが有効期限を過ぎている場合に返されます。
	ErrTokenExpired = errors.New("token expired")
)

// Parser はアクセストークンを検証してクレームを取り出します。
type Parser struct {
	secret []byte
}

// NewParser は指定されたシークレットで検証するParserを生成します。
func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// ParseToken は署名と有効期限を検証し、クレームを返します。
// 期限切れは ErrTokenExpired、それ以外の不正は ErrTokenInvalid になります。
func (p *Parser) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// HMAC以外の署名アルゴリズムは拒否
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// BearerToken は "Bearer <token>" 形式のヘッダー値からトークン部分を取り出します。
// 形式が合わない場合、トークンの解析は行わず ErrMissingBearer を返します。
func BearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMissingBearer
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMissingBearer
	}
	return token, nil
}
