package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mindmate-app/mindmate/internal/models"
	"github.com/mindmate-app/mindmate/internal/session"
	"github.com/mindmate-app/mindmate/pkg/client"
)

// fakeBackend serves the auth endpoints the CLI talks to
type fakeBackend struct {
	mu           sync.Mutex
	users        map[string]*models.User // token -> user
	lastRegister *models.RegisterRequest
	revoked      []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{users: map[string]*models.User{
		"tok-sam": {ID: "u1", Email: "sam@uni.edu", Username: "sam", FullName: "Sam Lee", Role: models.RoleStudent},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "sam@uni.edu" || req.Password != "secret1" {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Detail: "Invalid email or password"})
			return
		}
		writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: "tok-sam", TokenType: "bearer", User: b.user("tok-sam")})
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid request body"})
			return
		}
		user := &models.User{ID: "u2", Email: req.Email, Username: req.Username, FullName: req.FullName,
			Role: req.Role, Specializations: req.Specializations}
		b.mu.Lock()
		b.lastRegister = &req
		b.users["tok-new"] = user
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, models.AuthResponse{AccessToken: "tok-new", TokenType: "bearer", User: user})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		user := b.user(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Detail: "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, user)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.revoked = append(b.revoked, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) user(token string) *models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users[token]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// newTestApp builds an app whose password prompt answers from passwords in order
func newTestApp(srv *httptest.Server, store session.TokenStore, stdin string, passwords ...string) (*app, *bytes.Buffer) {
	var out bytes.Buffer
	a := newApp(client.NewClient(srv.URL+"/api"), store, strings.NewReader(stdin), &out)
	a.password = func(string) (string, error) {
		if len(passwords) == 0 {
			return "", errors.New("no password left")
		}
		p := passwords[0]
		passwords = passwords[1:]
		return p, nil
	}
	return a, &out
}

func TestSessionCommands(t *testing.T) {
	tests := []struct {
		name      string
		cmd       string
		args      []string
		stdin     string
		passwords []string
		wantErr   string
		wantOut   string
		wantToken string
	}{
		{
			name:      "login with flag",
			cmd:       "login",
			args:      []string{"-email", "sam@uni.edu"},
			passwords: []string{"secret1"},
			wantOut:   "Welcome back, Sam!",
			wantToken: "tok-sam",
		},
		{
			name:      "login prompts for email",
			cmd:       "login",
			stdin:     "sam@uni.edu\n",
			passwords: []string{"secret1"},
			wantOut:   "Welcome back, Sam!",
			wantToken: "tok-sam",
		},
		{
			name:      "login rejected",
			cmd:       "login",
			args:      []string{"-email", "sam@uni.edu"},
			passwords: []string{"wrong"},
			wantErr:   "Invalid email or password",
		},
		{
			name: "register counsellor",
			cmd:  "register",
			args: []string{"-role", "counsellor", "-email", "alice@uni.edu", "-username", "alice",
				"-name", "Alice Ng", "-specializations", "anxiety, ,sleep"},
			passwords: []string{"secret1", "secret1"},
			wantOut:   "Welcome to MindMate, Alice!",
			wantToken: "tok-new",
		},
		{
			name:      "register prompts for missing fields",
			cmd:       "register",
			stdin:     "kim@uni.edu\nkim\nKim Park\n",
			passwords: []string{"secret1", "secret1"},
			wantOut:   "Welcome to MindMate, Kim!",
			wantToken: "tok-new",
		},
		{
			name:      "register password mismatch",
			cmd:       "register",
			args:      []string{"-email", "kim@uni.edu", "-username", "kim", "-name", "Kim Park"},
			passwords: []string{"secret1", "secret2"},
			wantErr:   "passwords do not match",
		},
		{
			name:    "register unknown role",
			cmd:     "register",
			args:    []string{"-role", "admin"},
			wantErr: "unknown user type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, srv := newFakeBackend(t)
			store := session.NewMemoryStore("")
			a, out := newTestApp(srv, store, tt.stdin, tt.passwords...)

			err := a.run(context.Background(), tt.cmd, tt.args)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if tok, _ := store.Load(); tok != "" {
					t.Errorf("failed command stored token %q", tok)
				}
				if tt.cmd == "register" && backend.lastRegister != nil {
					t.Error("rejected registration should not reach the server")
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: %v", tt.cmd, err)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("expected output %q, got %q", tt.wantOut, out.String())
			}
			if tok, _ := store.Load(); tok != tt.wantToken {
				t.Errorf("expected stored token %q, got %q", tt.wantToken, tok)
			}
		})
	}
}

func TestRegisterSendsFilteredSpecializations(t *testing.T) {
	backend, srv := newFakeBackend(t)
	a, _ := newTestApp(srv, session.NewMemoryStore(""), "", "secret1", "secret1")

	err := a.run(context.Background(), "register", []string{"-role", "counsellor", "-email", "alice@uni.edu",
		"-username", "alice", "-name", "Alice Ng", "-specializations", "anxiety, ,sleep"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got := backend.lastRegister
	if got == nil || got.Role != models.RoleCounsellor {
		t.Fatalf("unexpected request: %+v", got)
	}
	if strings.Join(got.Specializations, "|") != "anxiety|sleep" {
		t.Errorf("expected [anxiety sleep], got %q", got.Specializations)
	}
}

func TestStoredSessionAcrossCommands(t *testing.T) {
	backend, srv := newFakeBackend(t)
	store := session.NewMemoryStore("")
	ctx := context.Background()

	a, _ := newTestApp(srv, store, "", "secret1")
	if err := a.run(ctx, "login", []string{"-email", "sam@uni.edu"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	// every later command runs in a fresh process that restores from the store
	a, out := newTestApp(srv, store, "")
	if err := a.run(ctx, "whoami", nil); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(out.String(), "Sam Lee (@sam)") {
		t.Errorf("unexpected whoami output: %q", out.String())
	}

	a, out = newTestApp(srv, store, "")
	if err := a.run(ctx, "open", []string{"/booking"}); err != nil {
		t.Fatalf("open /booking: %v", err)
	}
	if !strings.Contains(out.String(), "/booking: Book Session") || !strings.Contains(out.String(), "Menu:") {
		t.Errorf("students should see booking with the menu: %q", out.String())
	}
	if strings.Contains(out.String(), "/counsellor-dashboard") {
		t.Error("student menu should not list the counsellor dashboard")
	}

	a, out = newTestApp(srv, store, "")
	if err := a.run(ctx, "open", []string{"/counsellor-dashboard"}); err != nil {
		t.Fatalf("open /counsellor-dashboard: %v", err)
	}
	if !strings.Contains(out.String(), "redirects to /dashboard") {
		t.Errorf("expected redirect to dashboard, got %q", out.String())
	}

	a, out = newTestApp(srv, store, "")
	if err := a.run(ctx, "open", nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, want := range []string{"/booking", "render", "/counsellor-dashboard", "redirect /dashboard"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("page list missing %q:\n%s", want, out.String())
		}
	}

	a, _ = newTestApp(srv, store, "")
	if err := a.run(ctx, "logout", nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(backend.revoked) != 1 || backend.revoked[0] != "tok-sam" {
		t.Errorf("expected tok-sam revoked on the server, got %v", backend.revoked)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Errorf("logout should clear the stored token, got %q", tok)
	}

	a, _ = newTestApp(srv, store, "")
	if err := a.run(ctx, "whoami", nil); !errors.Is(err, errNotSignedIn) {
		t.Errorf("expected errNotSignedIn after logout, got %v", err)
	}
}

func TestRejectedStoredTokenIsForgotten(t *testing.T) {
	_, srv := newFakeBackend(t)
	store := session.NewMemoryStore("expired")

	a, out := newTestApp(srv, store, "")
	if err := a.run(context.Background(), "open", []string{"/dashboard"}); err != nil {
		t.Fatalf("open: %v", err)
	}
	if !strings.Contains(out.String(), "redirects to /login") {
		t.Errorf("expected login redirect, got %q", out.String())
	}
	if tok, _ := store.Load(); tok != "" {
		t.Errorf("rejected token should be cleared, got %q", tok)
	}
}

func TestClientBinaryStaysOffServerPackages(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}

	server := []string{"/internal/api", "/internal/storage", "/internal/revocation", "/internal/auth"}
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			for _, s := range server {
				if strings.HasSuffix(path, s) {
					t.Errorf("%s imports server package %s", name, path)
				}
			}
		}
	}
}
