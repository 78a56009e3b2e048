package di

import (
	"time"

	"github.com/gin-gonic/gin"

	"calendar_backend/internal/app/config"
	"calendar_backend/internal/app/router"
	"calendar_backend/internal/feature/webapp/apiclient"
	webhandler "calendar_backend/internal/feature/webapp/transport/handler"
	platformhttp "calendar_backend/internal/platform/http"
	jwtmw "calendar_backend/internal/platform/jwt"
)

// apiTimeout bounds every call from the front-end to the API.
const apiTimeout = 30 * time.Second

// NewWebapp creates the front-end router talking to the API at cfg.APIBaseURL.
func NewWebapp(cfg config.Config) *gin.Engine {
	client := apiclient.NewClient(cfg.APIBaseURL, platformhttp.NewHTTPClient(apiTimeout))
	pages := webhandler.NewPages(client, cfg.CookieSecure)
	gate := webhandler.CookieGate(jwtmw.NewParser(cfg.JWT.Secret))
	return router.NewWebappRouter(pages, gate)
}
