package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

// ErrRevoked marks a token whose session has ended.
var ErrRevoked = errors.New("session revoked")

// Session is the logged-in operator. It is created at login, carried as a
// signed token and discarded at logout.
type Session struct {
	ID        string          `json:"id"`
	Employee  entity.Employee `json:"employee"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// EmployeeSource looks up employees at login.
type EmployeeSource interface {
	Employee(ctx context.Context, id int64) (entity.Employee, error)
}

type claims struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    int64  `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues, resolves and ends sessions.
type Manager struct {
	employees EmployeeSource
	store     cache.Store
	secret    []byte
	ttl       time.Duration
	issuer    string
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
	onEnd   []func(Session)
}

// NewManager builds a Manager from the session configuration.
func NewManager(employees EmployeeSource, store cache.Store, cfg config.Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		employees: employees,
		store:     store,
		secret:    []byte(cfg.Session.Secret),
		ttl:       cfg.Session.TTL,
		issuer:    cfg.Session.Issuer,
		logger:    logger.Named("session"),
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}
}

// OnEnd registers fn to run whenever a session ends.
func (m *Manager) OnEnd(fn func(Session)) {
	m.mu.Lock()
	m.onEnd = append(m.onEnd, fn)
	m.mu.Unlock()
}

// Begin opens a session for an existing employee and returns its token.
func (m *Manager) Begin(ctx context.Context, employeeID int64) (string, Session, error) {
	if employeeID <= 0 {
		return "", Session{}, errorbank.BadRequest("employee_id is required")
	}
	emp, err := m.employees.Employee(ctx, employeeID)
	if err != nil {
		if errorbank.IsKind(err, errorbank.KindNotFound) {
			return "", Session{}, errorbank.Unauthorized("unknown employee", errorbank.WithCause(err))
		}
		return "", Session{}, err
	}

	now := m.now().UTC().Truncate(time.Second)
	s := Session{
		ID:        uuid.NewString(),
		Employee:  emp,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:    emp.Name,
		Surname: emp.Surname,
		Role:    emp.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(emp.ID, 10),
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, errorbank.Internal("sign session token", errorbank.WithCause(err))
	}

	m.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.Int64("employee_id", emp.ID),
		zap.Int64("role", emp.Role))
	return signed, s, nil
}

// Resolve verifies a token and returns its session.
func (m *Manager) Resolve(ctx context.Context, raw string) (Session, error) {
	if raw == "" {
		return Session{}, errorbank.Unauthorized("missing session token")
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, errorbank.Unauthorized("invalid session token", errorbank.WithCause(err))
	}

	employeeID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || c.ID == "" {
		return Session{}, errorbank.Unauthorized("invalid session token",
			errorbank.WithCause(fmt.Errorf("subject %q, id %q", c.Subject, c.ID)))
	}
	if m.isRevoked(ctx, c.ID) {
		return Session{}, errorbank.Unauthorized("session ended", errorbank.WithCause(ErrRevoked))
	}

	s := Session{
		ID: c.ID,
		Employee: entity.Employee{
			ID:      employeeID,
			Name:    c.Name,
			Surname: c.Surname,
			Role:    c.Role,
		},
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return s, nil
}

// End revokes the token's session and runs the OnEnd hooks.
func (m *Manager) End(ctx context.Context, raw string) (Session, error) {
	s, err := m.Resolve(ctx, raw)
	if err != nil {
		return Session{}, err
	}

	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		ttl = time.Second
	}

	m.mu.Lock()
	m.revoked[s.ID] = s.ExpiresAt
	hooks := slices.Clone(m.onEnd)
	m.pruneLocked()
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Set(ctx, revokedKey(s.ID), []byte("1"), ttl); err != nil {
			m.logger.Warn("persist session revocation failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	for _, fn := range hooks {
		fn(s)
	}

	m.logger.Info("session ended", zap.String("session_id", s.ID), zap.Int64("employee_id", s.Employee.ID))
	return s, nil
}

func (m *Manager) isRevoked(ctx context.Context, id string) bool {
	m.mu.Lock()
	_, local := m.revoked[id]
	m.mu.Unlock()
	if local {
		return true
	}
	if m.store == nil {
		return false
	}
	_, err := m.store.Get(ctx, revokedKey(id))
	return err == nil
}

// pruneLocked forgets revocations whose tokens have expired anyway.
func (m *Manager) pruneLocked() {
	now := m.now()
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
		}
	}
}

func revokedKey(id string) string {
	return cache.Key("session", "revoked", id)
}
