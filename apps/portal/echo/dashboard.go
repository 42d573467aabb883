package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/nav"
	"github.com/trezcool/masomo-portal/core/user"
)

type (
	homePage struct {
		User user.User   `json:"user"`
		Menu []nav.Entry `json:"menu"`
	}

	sectionPage struct {
		User    user.User `json:"user"`
		Section string    `json:"section"`
	}
)

func registerDashboard(app *echo.Echo, gate func(roles ...user.Role) echo.MiddlewareFunc) {
	app.GET("/", home, gate(anyRole...))
	app.GET("/profile", home, gate(anyRole...))

	for _, role := range user.AllRoles {
		app.GET("/"+role.String()+"/:section", section(role), gate(role))
	}
}

// Handlers

func home(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	return ctx.JSON(http.StatusOK, homePage{User: s.User, Menu: nav.Resolve(s.User.Role)})
}

func section(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s, err := getContextSession(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context session")
		}
		name := ctx.Param("section")
		for _, sec := range nav.Sections(role) {
			if sec == name {
				return ctx.JSON(http.StatusOK, sectionPage{User: s.User, Section: name})
			}
		}
		return errHttpNotFound
	}
}
