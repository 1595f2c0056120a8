package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperengineering/forge/internal/builder"
	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/hyperengineering/forge/internal/registry"
	"github.com/hyperengineering/forge/internal/store"
	"github.com/hyperengineering/forge/internal/validation"
)

func TestProblem_JSONSerialization(t *testing.T) {
	p := Problem{
		Type:     "https://forge.dev/errors/unauthorized",
		Title:    "Unauthorized",
		Status:   401,
		Detail:   "Missing or invalid API key",
		Instance: "/api/v1/modules",
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal Problem: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal Problem JSON: %v", err)
	}

	for key, want := range map[string]any{
		"type":     "https://forge.dev/errors/unauthorized",
		"title":    "Unauthorized",
		"status":   float64(401),
		"detail":   "Missing or invalid API key",
		"instance": "/api/v1/modules",
	} {
		if decoded[key] != want {
			t.Errorf("%s = %v, want %v", key, decoded[key], want)
		}
	}
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/modules/ghost", nil)

	WriteProblem(w, r, http.StatusNotFound, "Module not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %v, want application/problem+json", ct)
	}

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if p.Type != "https://forge.dev/errors/not-found" || p.Title != "Not Found" {
		t.Errorf("problem = %+v, want not-found type", p)
	}
	if p.Instance != "/api/v1/modules/ghost" {
		t.Errorf("instance = %q, want request path", p.Instance)
	}
}

func TestWriteProblem_UnknownStatus(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteProblem(w, r, http.StatusTeapot, "short and stout")

	var p Problem
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if p.Type != "https://forge.dev/errors/unknown" {
		t.Errorf("type = %q, want unknown type", p.Type)
	}
	if p.Title != http.StatusText(http.StatusTeapot) {
		t.Errorf("title = %q, want status text", p.Title)
	}
}

func TestWriteProblemWithErrors_422(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/modules/a-v-a/chat", nil)

	errs := []validation.ValidationError{
		{Field: "message", Message: "is required"},
	}
	WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}

	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if p.Type != "https://forge.dev/errors/validation-error" {
		t.Errorf("type = %q, want validation-error type", p.Type)
	}
	if len(p.Errors) != 1 || p.Errors[0].Field != "message" {
		t.Errorf("errors = %+v, want one message error", p.Errors)
	}
}

func TestMapError(t *testing.T) {
	verr := &moduleconfig.ValidationError{Fields: []validation.ValidationError{
		{Field: "templates.greeting", Message: "must contain at least one entry"},
	}}

	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"module not found", fmt.Errorf("%w: ghost", registry.ErrModuleNotFound), http.StatusNotFound, "Module not found"},
		{"pattern not found", fmt.Errorf("get pattern: %w", store.ErrNotFound), http.StatusNotFound, "Resource not found"},
		{"definition exists", fmt.Errorf("%w: chef-bot.yaml", builder.ErrDefinitionExists), http.StatusConflict, "Module definition already exists"},
		{"invalid config", fmt.Errorf("build: %w", verr), http.StatusUnprocessableEntity, "Module definition is invalid"},
		{"unknown", errors.New("database is locked at /var/secret"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			MapError(w, r, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var p ProblemWithErrors
			if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
				t.Fatalf("failed to decode problem: %v", err)
			}
			if p.Detail != tt.detail {
				t.Errorf("detail = %q, want %q", p.Detail, tt.detail)
			}
			if strings.Contains(w.Body.String(), "/var/secret") {
				t.Error("internal error details leaked")
			}
		})
	}
}

func TestMapError_ValidationFields(t *testing.T) {
	verr := &moduleconfig.ValidationError{Fields: []validation.ValidationError{
		{Field: "name", Message: "is required"},
		{Field: "behavior.creativity_level", Message: "must be between 1 and 10"},
	}}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/builder", nil)

	MapError(w, r, verr)

	var p ProblemWithErrors
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	if len(p.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2 field errors", p.Errors)
	}
	if p.Errors[1].Field != "behavior.creativity_level" {
		t.Errorf("errors[1].field = %q", p.Errors[1].Field)
	}
}
