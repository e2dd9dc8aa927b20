package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/pkg/client"
)

type fakeAPI struct {
	mu    sync.Mutex
	token string

	users    map[string]*models.User // token -> user
	login    func(email, password string) (*models.AuthResponse, error)
	register func(req models.RegisterRequest) (*models.AuthResponse, error)
	meGate   chan struct{}

	loginCalls    int
	registerCalls int
	lastRegister  models.RegisterRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: make(map[string]*models.User)}
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	return f.login(email, password)
}

func (f *fakeAPI) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	f.mu.Lock()
	f.registerCalls++
	f.lastRegister = req
	f.mu.Unlock()
	return f.register(req)
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	f.mu.Lock()
	token := f.token
	gate := f.meGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[token]
	if !ok {
		return nil, &client.APIError{StatusCode: 401, Detail: "Invalid token"}
	}
	return u, nil
}

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAPI) ClearToken() { f.SetToken("") }

func (f *fakeAPI) bearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// failingStore refuses to persist anything
type failingStore struct{ MemoryStore }

func (s *failingStore) Save(string) error { return errors.New("disk full") }

var (
	sam   = &models.User{ID: "u1", Email: "sam@uni.edu", FullName: "Sam Lee", Role: models.RoleStudent}
	alice = &models.User{ID: "u2", Email: "alice@uni.edu", FullName: "Alice Ng", Role: models.RoleCounsellor}
)

func TestManagerStartsLoading(t *testing.T) {
	m := NewManager(newFakeAPI(), NewMemoryStore(""))
	if got := m.Snapshot().State(); got != Loading {
		t.Errorf("expected loading, got %s", got)
	}
}

func TestRestoreWithoutToken(t *testing.T) {
	api := newFakeAPI()
	m := NewManager(api, NewMemoryStore(""))

	snap := m.Restore(context.Background())

	if snap.State() != Unauthenticated || snap.Token != "" || snap.User != nil {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if api.bearer() != "" {
		t.Errorf("expected no bearer, got %q", api.bearer())
	}
}

func TestRestoreWithValidToken(t *testing.T) {
	api := newFakeAPI()
	api.users["t1"] = sam
	m := NewManager(api, NewMemoryStore("t1"))

	snap := m.Restore(context.Background())

	if snap.State() != Authenticated {
		t.Fatalf("expected authenticated, got %s", snap.State())
	}
	if snap.Token != "t1" || snap.User.ID != "u1" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if api.bearer() != "t1" {
		t.Errorf("expected bearer t1, got %q", api.bearer())
	}
}

func TestRestoreWithRejectedTokenIsSilentLogout(t *testing.T) {
	api := newFakeAPI()
	store := NewMemoryStore("stale")
	m := NewManager(api, store)

	snap := m.Restore(context.Background())

	if snap.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated, got %s", snap.State())
	}
	if tok, _ := store.Load(); tok != "" {
		t.Errorf("expected stored token to be cleared, got %q", tok)
	}
	if api.bearer() != "" {
		t.Errorf("expected bearer cleared, got %q", api.bearer())
	}
}

func TestLoginSuccess(t *testing.T) {
	api := newFakeAPI()
	api.login = func(email, password string) (*models.AuthResponse, error) {
		return &models.AuthResponse{AccessToken: "t2", User: sam}, nil
	}
	store := NewMemoryStore("")
	m := NewManager(api, store)
	m.Restore(context.Background())

	res := m.Login(context.Background(), "sam@uni.edu", "secret1")

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	snap := m.Snapshot()
	if snap.State() != Authenticated || snap.Token != "t2" || snap.User.Role != models.RoleStudent {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if tok, _ := store.Load(); tok != "t2" {
		t.Errorf("expected persisted token t2, got %q", tok)
	}
	if api.bearer() != "t2" {
		t.Errorf("expected bearer t2, got %q", api.bearer())
	}
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server detail", &client.APIError{StatusCode: 401, Detail: "Invalid email or password"}, "Invalid email or password"},
		{"no detail", &client.APIError{StatusCode: 500}, "Login failed"},
		{"transport", errors.New("connection refused"), "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.users["t1"] = sam
			api.login = func(string, string) (*models.AuthResponse, error) { return nil, tt.err }
			store := NewMemoryStore("t1")
			m := NewManager(api, store)
			m.Restore(context.Background())
			before := m.Snapshot()

			res := m.Login(context.Background(), "sam@uni.edu", "wrong")

			if res.Success || res.Message != tt.want {
				t.Errorf("expected failure %q, got %+v", tt.want, res)
			}
			after := m.Snapshot()
			if after.Token != before.Token || after.User.ID != before.User.ID {
				t.Errorf("state changed: before %+v, after %+v", before, after)
			}
			if tok, _ := store.Load(); tok != "t1" {
				t.Errorf("stored token changed to %q", tok)
			}
			if api.bearer() != "t1" {
				t.Errorf("bearer changed to %q", api.bearer())
			}
		})
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	api := newFakeAPI()
	m := NewManager(api, NewMemoryStore(""))

	res := m.Login(context.Background(), "", "secret1")

	if res.Success || res.Message == "" {
		t.Errorf("expected a failure message, got %+v", res)
	}
	if api.loginCalls != 0 {
		t.Errorf("expected no backend call, got %d", api.loginCalls)
	}
}

func TestLoginPersistFailure(t *testing.T) {
	api := newFakeAPI()
	api.login = func(string, string) (*models.AuthResponse, error) {
		return &models.AuthResponse{AccessToken: "t2", User: sam}, nil
	}
	m := NewManager(api, &failingStore{})
	m.Restore(context.Background())

	res := m.Login(context.Background(), "sam@uni.edu", "secret1")

	if res.Success || res.Message != "failed to persist session" {
		t.Errorf("unexpected result: %+v", res)
	}
	if m.Snapshot().State() != Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", m.Snapshot().State())
	}
	if api.bearer() != "" {
		t.Errorf("expected no bearer, got %q", api.bearer())
	}
}

func TestRegisterSuccessLogsIn(t *testing.T) {
	api := newFakeAPI()
	api.register = func(req models.RegisterRequest) (*models.AuthResponse, error) {
		return &models.AuthResponse{AccessToken: "t3", User: alice}, nil
	}
	m := NewManager(api, NewMemoryStore(""))
	m.Restore(context.Background())

	res := m.Register(context.Background(), ProfileDraft{
		Role:            models.RoleCounsellor,
		FullName:        "Alice Ng",
		Username:        "alice",
		Email:           "alice@uni.edu",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Specializations: []string{"Anxiety", " ", "CBT"},
	})

	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if got := api.lastRegister.Specializations; len(got) != 2 || got[0] != "Anxiety" || got[1] != "CBT" {
		t.Errorf("unexpected specializations: %v", got)
	}
	if snap := m.Snapshot(); snap.User.Role != models.RoleCounsellor || snap.Token != "t3" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestRegisterDraftRejectedLocally(t *testing.T) {
	api := newFakeAPI()
	m := NewManager(api, NewMemoryStore(""))

	res := m.Register(context.Background(), ProfileDraft{
		Role:            models.RoleStudent,
		FullName:        "Sam Lee",
		Username:        "sam",
		Email:           "sam@uni.edu",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	})

	if res.Success || res.Message != ErrPasswordMismatch.Error() {
		t.Errorf("unexpected result: %+v", res)
	}
	if api.registerCalls != 0 {
		t.Errorf("expected no backend call, got %d", api.registerCalls)
	}
}

func TestRegisterFailureUsesDefaultMessage(t *testing.T) {
	api := newFakeAPI()
	api.register = func(models.RegisterRequest) (*models.AuthResponse, error) {
		return nil, errors.New("timeout")
	}
	m := NewManager(api, NewMemoryStore(""))
	m.Restore(context.Background())

	res := m.Register(context.Background(), ProfileDraft{
		Role: models.RoleStudent, FullName: "Sam Lee", Username: "sam", Email: "sam@uni.edu",
		Password: "secret1", ConfirmPassword: "secret1",
	})

	if res.Success || res.Message != "Registration failed" {
		t.Errorf("unexpected result: %+v", res)
	}
	if m.Snapshot().State() != Unauthenticated {
		t.Errorf("expected unauthenticated")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.users["t1"] = sam
	store := NewMemoryStore("t1")
	m := NewManager(api, store)
	m.Restore(context.Background())

	m.Logout()
	m.Logout()

	snap := m.Snapshot()
	if snap.State() != Unauthenticated || snap.Token != "" || snap.User != nil {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Errorf("expected stored token cleared, got %q", tok)
	}
	if api.bearer() != "" {
		t.Errorf("expected bearer cleared, got %q", api.bearer())
	}
}

func TestSubscribersSeeEveryTransition(t *testing.T) {
	api := newFakeAPI()
	api.login = func(string, string) (*models.AuthResponse, error) {
		return &models.AuthResponse{AccessToken: "t2", User: sam}, nil
	}
	m := NewManager(api, NewMemoryStore(""))

	var states []State
	unsubscribe := m.Subscribe(func(s Snapshot) { states = append(states, s.State()) })

	m.Restore(context.Background())
	m.Login(context.Background(), "sam@uni.edu", "secret1")
	m.Logout()
	unsubscribe()
	m.Logout()

	want := []State{Unauthenticated, Authenticated, Unauthenticated}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], states[i])
		}
	}
}

func TestSlowRestoreDoesNotOverrideLogin(t *testing.T) {
	api := newFakeAPI()
	api.users["old"] = alice
	api.meGate = make(chan struct{})
	api.login = func(string, string) (*models.AuthResponse, error) {
		return &models.AuthResponse{AccessToken: "new", User: sam}, nil
	}
	m := NewManager(api, NewMemoryStore("old"))

	done := make(chan Snapshot)
	go func() { done <- m.Restore(context.Background()) }()

	// wait until restore has installed the stored token and is blocked in Me
	for api.bearer() != "old" {
	}
	if res := m.Login(context.Background(), "sam@uni.edu", "secret1"); !res.Success {
		t.Fatalf("login failed: %s", res.Message)
	}
	if during := m.Snapshot(); during.State() != Authenticated || during.Loading {
		t.Errorf("login should settle the session while restore is pending: %+v", during)
	}
	close(api.meGate)
	snap := <-done

	if snap.Token != "new" || snap.User.ID != sam.ID || snap.Loading {
		t.Errorf("restore overwrote login: %+v", snap)
	}
	if api.bearer() != "new" {
		t.Errorf("expected bearer new, got %q", api.bearer())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	api := newFakeAPI()
	api.users["t1"] = alice
	m := NewManager(api, NewMemoryStore("t1"))
	m.Restore(context.Background())

	snap := m.Snapshot()
	snap.User.FullName = "changed"

	if m.Snapshot().User.FullName != "Alice Ng" {
		t.Errorf("snapshot aliases manager state")
	}
}

func TestLogoutDuringRestoreEndsLoading(t *testing.T) {
	api := newFakeAPI()
	api.users["old"] = alice
	api.meGate = make(chan struct{})
	m := NewManager(api, NewMemoryStore("old"))

	done := make(chan Snapshot)
	go func() { done <- m.Restore(context.Background()) }()
	for api.bearer() != "old" {
	}

	m.Logout()
	if snap := m.Snapshot(); snap.State() != Unauthenticated {
		t.Errorf("expected unauthenticated after logout, got %s", snap.State())
	}
	close(api.meGate)

	if snap := <-done; snap.User != nil || snap.Loading {
		t.Errorf("restore overwrote logout: %+v", snap)
	}
}

func TestRestoreWithUnreadableStoreClearsIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("token: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected the corrupt file to fail loading")
	}

	m := NewManager(newFakeAPI(), store)
	snap := m.Restore(context.Background())

	if snap.State() != Unauthenticated {
		t.Errorf("expected unauthenticated, got %s", snap.State())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("corrupt session file should be removed, stat err = %v", err)
	}
}

func TestRestoreDropsPasswordHash(t *testing.T) {
	api := newFakeAPI()
	api.users["t1"] = &models.User{ID: "u9", FullName: "Kim", Role: models.RoleStudent, PasswordHash: "$2a$hash"}
	m := NewManager(api, NewMemoryStore("t1"))

	if snap := m.Restore(context.Background()); snap.User == nil || snap.User.PasswordHash != "" {
		t.Errorf("restored user should be the public copy: %+v", snap.User)
	}
}
