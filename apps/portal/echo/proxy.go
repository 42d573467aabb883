package echoportal

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// registerBackendProxy forwards /api/* to the masomo backend. transport attaches the session token.
func registerBackendProxy(app *echo.Echo, baseURL string, transport http.RoundTripper) {
	target, err := url.Parse(baseURL)
	if err != nil || target.Host == "" {
		app.Logger.Errorf("backend proxy disabled: invalid API base URL %q", baseURL)
		return
	}

	app.Group("/api",
		stripAuthorization,
		middleware.ProxyWithConfig(middleware.ProxyConfig{
			Balancer:  middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: target}}),
			Transport: transport,
		}),
	)
}
