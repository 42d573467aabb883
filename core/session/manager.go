package session

import (
	"context"
	"fmt"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
	"github.com/trezcool/masomo-portal/core/user"
)

type (
	// Deps are the Manager collaborators. Validate and Translator default to core.NewValidator().
	Deps struct {
		Store      CredentialStore
		Auth       Authenticator
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	// Credentials is the login form.
	Credentials struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	// Manager is the single writer of the application Session.
	// Bootstrap, Login and Logout run one at a time; reads never wait on them.
	Manager struct {
		store      CredentialStore
		auth       Authenticator
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator

		opMu         sync.Mutex // serializes Bootstrap, Login & Logout
		bootstrapped bool       // guarded by opMu

		mu      sync.RWMutex
		state   Session
		settled chan struct{} // closed while state is not Verifying
	}
)

// NewManager creates the application Manager.
// The Session starts Verifying when the store holds a token; Bootstrap must then be called to settle it.
func NewManager(deps Deps) *Manager {
	m := &Manager{
		store:      deps.Store,
		auth:       deps.Auth,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		settled:    make(chan struct{}),
	}
	if m.validate == nil || m.translator == nil {
		m.validate, m.translator = core.NewValidator()
	}

	if token, ok := m.store.Load(); ok {
		m.state = Session{Status: Verifying, Token: token}
	} else {
		m.state = Session{Status: Unauthenticated}
		close(m.settled)
	}
	return m
}

// Session returns the current Session snapshot.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Wait blocks until the Session is no longer Verifying or ctx is done.
func (m *Manager) Wait(ctx context.Context) (Session, error) {
	for {
		m.mu.RLock()
		state, settled := m.state, m.settled
		m.mu.RUnlock()

		if state.Status != Verifying {
			return state, nil
		}
		select {
		case <-settled:
		case <-ctx.Done():
			return m.Session(), ctx.Err()
		}
	}
}

// Bootstrap restores the Session persisted by a previous run. Only the first call has an effect.
// It never fails: any verification failure clears the store and leaves the Session Unauthenticated.
func (m *Manager) Bootstrap(ctx context.Context) Session {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.bootstrapped {
		m.bootstrapLocked(ctx)
	}
	return m.Session()
}

// bootstrapLocked verifies the stored token, if any. opMu must be held.
func (m *Manager) bootstrapLocked(ctx context.Context) {
	m.bootstrapped = true

	token, ok := m.store.Load()
	if !ok {
		m.transition(Session{Status: Unauthenticated})
		return
	}

	m.transition(Session{Status: Verifying, Token: token})
	usr, err := m.auth.Verify(ctx, token)
	if err == nil {
		if vErr := usr.Validate(); vErr != nil {
			err = NewError(KindUnexpectedResponse, 0, errors.Wrap(vErr, "verify response"))
		}
	}
	if err != nil {
		m.logger.Warn("session verification failed", classify(err))
		if cErr := m.store.Clear(); cErr != nil {
			m.logger.Error("clearing credential store", errors.Wrap(cErr, "bootstrap"))
		}
		m.transition(Session{Status: Unauthenticated})
		return
	}

	m.transition(Session{Status: Authenticated, User: usr, Token: token})
	m.logger.Info("session restored", usr)
}

// Login authenticates against the auth server and, on success, persists and attaches the new token.
// It returns a *core.ValidationError for malformed credentials (Session untouched),
// ErrAlreadyAuthenticated when a user is logged in (including one restored from the store when Login
// runs before Bootstrap) and a classified *Error on auth or storage failures.
func (m *Manager) Login(ctx context.Context, email, password string) (user.User, error) {
	creds := Credentials{Email: core.CleanString(email, true /* lower */), Password: password}
	if err := m.validate.Struct(creds); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return user.User{}, core.TranslateValidationErrors(vErrs, m.translator)
		}
		return user.User{}, errors.Wrap(err, "validating credentials")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	// a stored token is settled first so a failed login cannot leave it behind
	if !m.bootstrapped {
		m.bootstrapLocked(ctx)
	}
	if m.Session().IsAuthenticated() {
		return user.User{}, ErrAlreadyAuthenticated
	}

	m.transition(Session{Status: Verifying})
	token, usr, err := m.auth.Login(ctx, creds.Email, creds.Password)
	if err == nil {
		if token == "" {
			err = NewError(KindUnexpectedResponse, 0, errors.New("login response: token missing"))
		} else if vErr := usr.Validate(); vErr != nil {
			err = NewError(KindUnexpectedResponse, 0, errors.Wrap(vErr, "login response"))
		}
	}
	if err != nil {
		sErr := classify(err)
		m.transition(Session{Status: Failed, LastError: sErr})
		m.logger.Info(fmt.Sprintf("login failed for %q", creds.Email), sErr)
		return user.User{}, sErr
	}

	if err = m.store.Save(token); err != nil {
		sErr := NewError(KindStorageFailure, 0, errors.Wrap(err, "saving token"))
		m.transition(Session{Status: Failed, LastError: sErr})
		m.logger.Error("login: persisting token", sErr, usr)
		return user.User{}, sErr
	}
	m.transition(Session{Status: Authenticated, User: usr, Token: token})
	m.logger.Info("logged in", usr)
	return usr, nil
}

// Logout forgets the Session locally. The token is not revoked server-side.
func (m *Manager) Logout() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.bootstrapped = true
	prev := m.Session()
	if err := m.store.Clear(); err != nil {
		m.logger.Error("logout: clearing credential store", errors.Wrap(err, "logout"), prev.User)
	}
	m.transition(Session{Status: Unauthenticated})
	if prev.IsAuthenticated() {
		m.logger.Info("logged out", prev.User)
	}
}

// transition replaces the Session, attaching its token (if any) to the shared request configuration.
func (m *Manager) transition(next Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wasPending := m.state.Status == Verifying
	m.state = next
	switch {
	case next.Status == Verifying && !wasPending:
		m.settled = make(chan struct{})
	case next.Status != Verifying && wasPending:
		close(m.settled)
	}
}

// bearer returns the token attached to outgoing requests.
func (m *Manager) bearer() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}
