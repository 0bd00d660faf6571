package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/frostline/internal/dto"
	"github.com/Additional-Code/frostline/internal/presentation/http/response"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

// Handler opens and closes console sessions.
type Handler struct {
	sessions *session.Manager
}

// NewHandler constructs a session Handler.
func NewHandler(sessions *session.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.POST("/session", h.begin)
	e.GET("/session", h.current, session.Middleware(h.sessions))
	e.DELETE("/session", h.end)
}

func (h *Handler) begin(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		EmployeeID int64 `json:"employee_id"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	token, sess, err := h.sessions.Begin(c.Request().Context(), payload.EmployeeID)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(dto.LoginResponse{
		Token:   token,
		Session: sessionResponse(sess),
	}).Build()
}

func (h *Handler) current(c echo.Context) error {
	b := response.New(c)
	sess, ok := session.FromEcho(c)
	if !ok {
		return b.SessionRequired()
	}
	return b.WithData(sessionResponse(sess)).Build()
}

func (h *Handler) end(c echo.Context) error {
	b := response.New(c)
	if _, err := h.sessions.End(c.Request().Context(), session.BearerToken(c)); err != nil {
		return b.WithError(err).Build()
	}
	return b.NoContent()
}

func sessionResponse(s session.Session) dto.SessionResponse {
	return dto.NewSession(s.ID, s.Employee, s.IssuedAt, s.ExpiresAt)
}
