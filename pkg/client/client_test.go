package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mindmate-app/mindmate/internal/models"
)

func TestBearerIsAttachedProcessWide(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Quiz{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	if _, err := c.ListQuizzes(ctx); err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	c.SetToken("abc")
	if _, err := c.ListQuizzes(ctx); err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}
	c.ClearToken()
	if _, err := c.ListQuizzes(ctx); err != nil {
		t.Fatalf("ListQuizzes failed: %v", err)
	}

	want := []string{"", "Bearer abc", ""}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("request %d: expected %q, got %q", i, want[i], seen[i])
		}
	}
}

func TestLoginDecodesAuthResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if req.Email != "sam@uni.edu" || req.Password != "secret1" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		json.NewEncoder(w).Encode(models.AuthResponse{
			AccessToken: "tok",
			TokenType:   "bearer",
			User:        &models.User{ID: "u1", Email: req.Email, Role: models.RoleStudent},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/api/").Login(context.Background(), "sam@uni.edu", "secret1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.AccessToken != "tok" || resp.User == nil || resp.User.Role != models.RoleStudent {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestErrorDetailIsExposed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(models.ErrorResponse{Detail: "Invalid email or password"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "a@b.co", "nope")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Detail != "Invalid email or password" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Me(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Detail != "" || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestTransportFailureIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Me(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure should not be an APIError: %v", err)
	}
}
