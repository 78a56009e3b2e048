package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	jwtmw "calendar_backend/internal/platform/jwt"
)

const (
	// CookieName はアクセストークンを保持するCookie名です。
	CookieName = "access_token"
	// CookieMaxAge はCookieの有効期間（秒）で、トークンのデフォルト有効期間と揃えています。
	CookieMaxAge = 1800

	ctxToken  = "webapp.token"
	ctxUserID = "webapp.userID"
)

// TokenParser はCookieのトークンを検証します。
type TokenParser interface {
	ParseToken(tokenStr string) (*jwtmw.Claims, error)
}

// CookieGate はCookieのトークンをローカルで検証し、無効なら /login へリダイレクトするミドルウェアを返します。
func CookieGate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		claims, err := parser.ParseToken(token)
		if err != nil {
			slog.Info("rejected session cookie", "error", err, "remote_addr", c.ClientIP())
			clearCookie(c, false)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(ctxToken, token)
		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

func setCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, CookieMaxAge, "/", "", secure, true)
}

func clearCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", secure, true)
}

func sessionToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

func sessionUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}
