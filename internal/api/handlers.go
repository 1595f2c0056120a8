package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hyperengineering/forge/internal/builder"
	"github.com/hyperengineering/forge/internal/registry"
	"github.com/hyperengineering/forge/internal/types"
	"github.com/hyperengineering/forge/internal/validation"
)

// History page limits.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 1000
)

// ModuleService is the part of the module registry the API serves.
type ModuleService interface {
	Available() []types.ModuleInfo
	LoadErrors() []registry.ModuleLoadError
	Refresh() error
	Info(nameOrID string) (types.ModuleInfo, error)
	Respond(ctx context.Context, nameOrID, input string, history []types.ConversationTurn) (string, error)
	Stats(ctx context.Context, nameOrID string) (*types.ModuleStats, error)
	History(ctx context.Context, nameOrID string, limit int) ([]types.Conversation, error)
	ModulesDir() string
}

var _ ModuleService = (*registry.Registry)(nil)

// Handler implements the API handlers
type Handler struct {
	modules ModuleService
	builder *builder.Builder
	apiKey  string
	version string
}

// NewHandler creates a Handler. An empty apiKey disables authentication.
func NewHandler(modules ModuleService, b *builder.Builder, apiKey, version string) *Handler {
	if b == nil {
		b = builder.New()
	}
	return &Handler{
		modules: modules,
		builder: b,
		apiKey:  apiKey,
		version: version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Modules: len(h.modules.Available()),
	})
}

// ListModules handles GET /api/v1/modules
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	loadErrs := h.modules.LoadErrors()
	issues := make([]types.ModuleLoadIssue, len(loadErrs))
	for i, e := range loadErrs {
		issues[i] = types.ModuleLoadIssue{Name: e.Name, Path: e.Path, Reason: e.Err.Error()}
	}

	writeJSON(w, http.StatusOK, types.ModuleListResponse{
		Modules:    h.modules.Available(),
		LoadErrors: issues,
	})
}

// RefreshModules handles POST /api/v1/modules/refresh
func (h *Handler) RefreshModules(w http.ResponseWriter, r *http.Request) {
	if err := h.modules.Refresh(); err != nil {
		slog.Error("module refresh failed", "component", "api", "action", "refresh_failed", "error", err)
		MapError(w, r, err)
		return
	}
	h.ListModules(w, r)
}

// GetModule handles GET /api/v1/modules/{module}
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MustModuleFromContext(r.Context()))
}

// Chat handles POST /api/v1/modules/{module}/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	info := MustModuleFromContext(r.Context())

	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validation.ValidateChatRequest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	resp, err := h.modules.Respond(r.Context(), info.ID, req.Message, req.History)
	if err != nil {
		if errors.Is(err, registry.ErrModuleNotFound) {
			MapError(w, r, err)
			return
		}
		// resp carries the localized failure message
		WriteProblem(w, r, http.StatusInternalServerError, resp)
		return
	}

	writeJSON(w, http.StatusOK, types.ChatResponse{Module: info.ID, Response: resp})
}

// Stats handles GET /api/v1/modules/{module}/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	info := MustModuleFromContext(r.Context())

	stats, err := h.modules.Stats(r.Context(), info.ID)
	if err != nil {
		slog.Error("stats failed", "component", "api", "module_id", info.ID, "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// History handles GET /api/v1/modules/{module}/history?limit=N
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	info := MustModuleFromContext(r.Context())

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	convs, err := h.modules.History(r.Context(), info.ID, limit)
	if err != nil {
		slog.Error("history failed", "component", "api", "module_id", info.ID, "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{Module: info.ID, Conversations: convs})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxHistoryLimit {
		return 0, fmt.Errorf("limit must be an integer between 1 and %d", MaxHistoryLimit)
	}
	return n, nil
}
