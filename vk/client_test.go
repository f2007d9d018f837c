package vk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *Client {
	c := New(Config{
		Token:   "test-token",
		GroupID: "123",
		BaseURL: srv.URL,
	})
	c.http = srv.Client()
	return c
}

func apiOK(w http.ResponseWriter, response any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"response": response})
}

func apiFail(w http.ResponseWriter, code int, msg string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"error_code": code, "error_msg": msg},
	})
}

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users.get" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("access_token"); got != "test-token" {
			t.Errorf("access_token = %q", got)
		}
		if got := r.PostFormValue("v"); got != defaultVersion {
			t.Errorf("v = %q, want %q", got, defaultVersion)
		}
		apiOK(w, []map[string]any{{"id": 1}})
	}))
	defer srv.Close()

	if err := newTestClient(srv).Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiFail(w, 5, "User authorization failed")
	}))
	defer srv.Close()

	err := newTestClient(srv).Authenticate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error type = %T, want *AuthError", err)
	}
	if authErr.Code() != "VK_AUTH" {
		t.Errorf("Code() = %q", authErr.Code())
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode != 5 {
		t.Errorf("expected wrapped APIError with code 5, got %v", err)
	}
}

func TestAuthenticateEmptyToken(t *testing.T) {
	c := New(Config{GroupID: "123"})
	err := c.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}

func TestStageMedia(t *testing.T) {
	staged := filepath.Join(t.TempDir(), "pic.img")
	if err := os.WriteFile(staged, []byte("jpeg-bytes"), 0o600); err != nil {
		t.Fatalf("write staged file: %v", err)
	}

	var mux *http.ServeMux
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
	}))
	defer srv.Close()

	mux = http.NewServeMux()
	mux.HandleFunc("/photos.getWallUploadServer", func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("group_id"); got != "123" {
			t.Errorf("group_id = %q", got)
		}
		apiOK(w, map[string]any{"upload_url": srv.URL + "/upload"})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("photo")
		if err != nil {
			t.Fatalf("missing photo form file: %v", err)
		}
		f.Close()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"server": 42, "photo": "blob", "hash": "abc",
		})
	})
	mux.HandleFunc("/photos.saveWallPhoto", func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("server"); got != "42" {
			t.Errorf("server = %q", got)
		}
		if got := r.PostFormValue("photo"); got != "blob" {
			t.Errorf("photo = %q", got)
		}
		if got := r.PostFormValue("hash"); got != "abc" {
			t.Errorf("hash = %q", got)
		}
		apiOK(w, []map[string]any{{"id": 456, "owner_id": -123}})
	})

	ref, err := newTestClient(srv).StageMedia(context.Background(), staged, "123")
	if err != nil {
		t.Fatalf("StageMedia: %v", err)
	}
	if ref != "photo-123_456" {
		t.Errorf("ref = %q, want %q", ref, "photo-123_456")
	}
}

func TestStageMediaRejectedUpload(t *testing.T) {
	staged := filepath.Join(t.TempDir(), "pic.img")
	if err := os.WriteFile(staged, []byte("x"), 0o600); err != nil {
		t.Fatalf("write staged file: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos.getWallUploadServer":
			apiOK(w, map[string]any{"upload_url": "http://" + r.Host + "/upload"})
		case "/upload":
			_ = json.NewEncoder(w).Encode(map[string]any{"server": 1, "photo": "[]", "hash": "h"})
		default:
			t.Errorf("unexpected call to %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv).StageMedia(context.Background(), staged, "123")
	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, want *UploadError", err)
	}
}

func TestCreatePostScheduled(t *testing.T) {
	at := time.Date(2026, time.September, 4, 14, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wall.post" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.PostFormValue("owner_id"); got != "-123" {
			t.Errorf("owner_id = %q", got)
		}
		if got := r.PostFormValue("from_group"); got != "1" {
			t.Errorf("from_group = %q", got)
		}
		if got := r.PostFormValue("message"); got != "hello" {
			t.Errorf("message = %q", got)
		}
		if got := r.PostFormValue("attachments"); got != "photo-123_456" {
			t.Errorf("attachments = %q", got)
		}
		if got := r.PostFormValue("publish_date"); got != "1788532200" {
			t.Errorf("publish_date = %q", got)
		}
		apiOK(w, map[string]any{"post_id": 789})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).CreatePost(context.Background(), "hello", "photo-123_456", &at, "123")
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if id != 789 {
		t.Errorf("post id = %d, want 789", id)
	}
}

func TestCreatePostImmediate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("publish_date"); got != "" {
			t.Errorf("publish_date should be absent, got %q", got)
		}
		apiOK(w, map[string]any{"post_id": 7})
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).CreatePost(context.Background(), "hi", "photo-1_2", nil, "123"); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
}

func TestCreatePostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiFail(w, 214, "Access to adding post denied")
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreatePost(context.Background(), "hi", "photo-1_2", nil, "123")
	var postErr *PostError
	if !errors.As(err, &postErr) {
		t.Fatalf("error = %v, want *PostError", err)
	}
	if postErr.Code() != "VK_POST" {
		t.Errorf("Code() = %q", postErr.Code())
	}
}

func TestResolveShareURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/groups.getById" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		apiOK(w, []map[string]any{{"screen_name": "catpics"}})
	}))
	defer srv.Close()

	url, err := newTestClient(srv).ResolveShareURL(context.Background(), "123", 789)
	if err != nil {
		t.Fatalf("ResolveShareURL: %v", err)
	}
	want := "https://vk.com/catpics?w=wall-123_789"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestResolveShareURLMissingScreenName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiOK(w, []map[string]any{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ResolveShareURL(context.Background(), "123", 789)
	if err == nil || !strings.Contains(err.Error(), "screen name") {
		t.Fatalf("err = %v, want missing screen name", err)
	}
}
