package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/authz"
	"github.com/trezcool/masomo-portal/core/session"
)

type authApi struct {
	mgr *session.Manager
}

func registerAuthRoutes(app *echo.Echo, mgr *session.Manager) {
	api := authApi{mgr: mgr}

	app.GET(authz.LoginPath, api.loginPage)
	app.POST(authz.LoginPath, api.login)
	app.POST("/logout", api.logout)
}

type loginPage struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handlers

func (api *authApi) loginPage(ctx echo.Context) error {
	s := api.mgr.Session()
	if s.IsAuthenticated() {
		return ctx.Redirect(http.StatusFound, authz.HomePath)
	}
	page := loginPage{Status: s.Status.String()}
	if s.LastError != nil {
		page.Error = s.LastError.Error()
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *authApi) login(ctx echo.Context) error {
	var data session.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}

	_, err := api.mgr.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil && err != session.ErrAlreadyAuthenticated {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, authz.HomePath)
}

func (api *authApi) logout(ctx echo.Context) error {
	api.mgr.Logout()
	return ctx.Redirect(http.StatusSeeOther, authz.LoginPath)
}
