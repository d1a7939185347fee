package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newGatewayStub(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestLoginSuccess(t *testing.T) {
	var gotReq map[string]any
	client := newGatewayStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"email":     "ada@example.com",
			"firstName": "Ada",
			"lastName":  "Lovelace",
		})
	})

	got := client.Login(context.Background(), "ada@example.com", "hunter2")
	want := LoginResult{Success: true, Email: "ada@example.com", DisplayName: "Ada Lovelace"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("login result mismatch (-want +got):\n%s", diff)
	}

	wantReq := map[string]any{"email": "ada@example.com", "password": "hunter2", "rememberMe": false}
	if diff := cmp.Diff(wantReq, gotReq); diff != "" {
		t.Fatalf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestLoginDisplayNameFallsBackToEmail(t *testing.T) {
	client := newGatewayStub(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"email":   "ada@example.com",
		})
	})

	got := client.Login(context.Background(), "ada@example.com", "hunter2")
	if !got.Success || got.DisplayName != "ada@example.com" {
		t.Fatalf("got %+v, want success with email as display name", got)
	}
}

func TestLoginRefusedByGateway(t *testing.T) {
	client := newGatewayStub(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "bad password",
		})
	})

	got := client.Login(context.Background(), "ada@example.com", "wrong")
	if got.Success {
		t.Fatal("login succeeded, want refusal")
	}
	if got.Message != "bad password" {
		t.Fatalf("message = %q, want gateway message", got.Message)
	}
}

func TestLoginNonSuccessStatus(t *testing.T) {
	client := newGatewayStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	got := client.Login(context.Background(), "ada@example.com", "wrong")
	if got.Success || got.Message == "" {
		t.Fatalf("got %+v, want failure with message", got)
	}
}

func TestLoginGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL)

	got := client.Login(context.Background(), "ada@example.com", "hunter2")
	if got.Success || got.Message == "" {
		t.Fatalf("got %+v, want transport failure", got)
	}
}

func TestLoginMalformedResponse(t *testing.T) {
	client := newGatewayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	got := client.Login(context.Background(), "ada@example.com", "hunter2")
	if got.Success {
		t.Fatal("login succeeded on malformed body")
	}
}
