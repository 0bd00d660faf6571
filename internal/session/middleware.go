package session

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/frostline/internal/presentation/http/response"
)

const contextKey = "frostline.session"

type ctxKey struct{}

// Middleware resolves the bearer token and stores the session on the request.
func Middleware(m *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := m.Resolve(c.Request().Context(), BearerToken(c))
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			c.Set(contextKey, s)
			c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), s)))
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) string {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// FromEcho returns the session resolved by Middleware.
func FromEcho(c echo.Context) (Session, bool) {
	s, ok := c.Get(contextKey).(Session)
	return s, ok
}

// WithContext attaches s to ctx.
func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached to ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
