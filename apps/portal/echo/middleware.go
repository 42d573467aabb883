package echoportal

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core/authz"
	"github.com/trezcool/masomo-portal/core/session"
	"github.com/trezcool/masomo-portal/core/user"
)

const sessionCtxKey = "session"

var (
	errSessionNotInCtx  = errors.New("session not found in echo.Context")
	errHttpRemoteClient = echo.NewHTTPError(http.StatusForbidden, "portal only serves local clients")
)

// loopbackOnly rejects callers not connecting from the loopback interface.
// The portal holds one session for the whole process, so it serves the local user only.
// Forwarding headers are ignored: they are set by the caller.
func loopbackOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		host, _, err := net.SplitHostPort(ctx.Request().RemoteAddr)
		if err != nil {
			host = ctx.Request().RemoteAddr
		}
		if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
			return errHttpRemoteClient
		}
		return next(ctx)
	}
}

// gateMiddleware realises authz decisions for a subtree open to allowed roles.
// A pending session is waited on for up to wait before answering 503.
func gateMiddleware(mgr *session.Manager, wait time.Duration, allowed user.RoleSet) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s := mgr.Session()
			decision := authz.Decide(s, allowed)
			if decision.Outcome == authz.Pending && wait > 0 {
				wctx, cancel := context.WithTimeout(ctx.Request().Context(), wait)
				s, _ = mgr.Wait(wctx)
				cancel()
				decision = authz.Decide(s, allowed)
			}

			switch decision.Outcome {
			case authz.Allow:
				ctx.Set(sessionCtxKey, s)
				return next(ctx)
			case authz.Redirect:
				return ctx.Redirect(http.StatusFound, decision.Path)
			default:
				ctx.Response().Header().Set("Retry-After", "1")
				return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": s.Status.String()})
			}
		}
	}
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	s, ok := ctx.Get(sessionCtxKey).(session.Session)
	if !ok {
		return session.Session{}, errSessionNotInCtx
	}
	return s, nil
}

// stripAuthorization drops any caller supplied credentials; the portal session decides who calls the backend.
func stripAuthorization(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Request().Header.Del(echo.HeaderAuthorization)
		return next(ctx)
	}
}
