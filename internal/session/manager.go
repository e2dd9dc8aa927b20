package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/pkg/client"
)

const (
	defaultLoginFailure    = "Login failed"
	defaultRegisterFailure = "Registration failed"
	persistFailure         = "failed to persist session"
	missingCredentials     = "email and password are required"
)

// API is the backend surface the session depends on. The bearer token set
// through SetToken applies to every later request made through it.
type API interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	SetToken(token string)
	ClearToken()
}

// State is the coarse session state used by the route guard
type State int

const (
	Unauthenticated State = iota
	Loading
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Snapshot is an immutable view of the session at one point in time
type Snapshot struct {
	Token   string
	User    *models.User
	Loading bool
}

// State derives the session state from the snapshot
func (s Snapshot) State() State {
	switch {
	case s.Loading:
		return Loading
	case s.User != nil:
		return Authenticated
	default:
		return Unauthenticated
	}
}

// Result is the outcome of a login or registration
type Result struct {
	Success bool
	Message string
}

// Manager owns who is logged in. It starts in the loading state until
// Restore has run once.
type Manager struct {
	api   API
	store TokenStore

	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool
	// epoch increments on every applied transition so a slow restore cannot
	// overwrite a login or logout that finished first
	epoch uint64

	listenersMu sync.Mutex
	listeners   map[int]func(Snapshot)
	nextID      int
}

// NewManager creates a session manager in the loading state
func NewManager(api API, store TokenStore) *Manager {
	return &Manager{
		api:       api,
		store:     store,
		loading:   true,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Token:   m.token,
		User:    m.user.Public(),
		Loading: m.loading,
	}
}

// Subscribe registers fn to be called after every session transition.
// The returned function removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) notify(snap Snapshot) {
	m.listenersMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Restore reads the persisted token and validates it against the backend.
// Any failure is treated as "not logged in": the stored token is dropped and
// no error is surfaced.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.mu.RLock()
	startEpoch := m.epoch
	m.mu.RUnlock()

	token, err := m.store.Load()
	if err != nil {
		slog.Warn("failed to read stored session", "error", err)
		return m.finishRestore(startEpoch, m.clearLocked)
	}

	if token == "" {
		return m.finishRestore(startEpoch, func() {})
	}

	m.api.SetToken(token)
	user, err := m.api.Me(ctx)
	if err != nil {
		slog.Info("stored session rejected", "error", err)
		return m.finishRestore(startEpoch, m.clearLocked)
	}

	return m.finishRestore(startEpoch, func() {
		m.token = token
		m.user = user.Public()
	})
}

// finishRestore applies the outcome of a restore unless another transition
// won the race, and always ends the loading state
func (m *Manager) finishRestore(startEpoch uint64, apply func()) Snapshot {
	m.mu.Lock()
	if m.epoch == startEpoch {
		apply()
		m.epoch++
	} else if m.token != "" {
		m.api.SetToken(m.token)
	} else {
		m.api.ClearToken()
	}
	m.loading = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return snap
}

// Login checks credentials with the backend and, on success, persists the
// returned token and makes it the bearer for all later requests. On failure
// the session is left exactly as it was.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	if email == "" || password == "" {
		return Result{Message: missingCredentials}
	}

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		return Result{Message: failureMessage(err, defaultLoginFailure)}
	}
	return m.authenticate(resp, defaultLoginFailure)
}

// Register submits a new account and logs it in on success
func (m *Manager) Register(ctx context.Context, draft ProfileDraft) Result {
	if err := draft.Validate(); err != nil {
		return Result{Message: err.Error()}
	}

	resp, err := m.api.Register(ctx, draft.Payload())
	if err != nil {
		return Result{Message: failureMessage(err, defaultRegisterFailure)}
	}
	return m.authenticate(resp, defaultRegisterFailure)
}

func (m *Manager) authenticate(resp *models.AuthResponse, fallback string) Result {
	if resp == nil || resp.AccessToken == "" || resp.User == nil {
		return Result{Message: fallback}
	}

	if err := m.store.Save(resp.AccessToken); err != nil {
		slog.Error("failed to persist session token", "error", err)
		return Result{Message: persistFailure}
	}

	m.mu.Lock()
	m.api.SetToken(resp.AccessToken)
	m.token = resp.AccessToken
	m.user = resp.User.Public()
	m.loading = false
	m.epoch++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return Result{Success: true}
}

// Logout forgets the session locally. It always succeeds and is idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.clearLocked()
	m.loading = false
	m.epoch++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// clearLocked drops the durable token, the bearer credential and the user.
// Callers hold m.mu.
func (m *Manager) clearLocked() {
	if err := m.store.Clear(); err != nil {
		slog.Warn("failed to clear stored session", "error", err)
	}
	m.api.ClearToken()
	m.token = ""
	m.user = nil
}

// failureMessage prefers the server's own explanation
func failureMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
