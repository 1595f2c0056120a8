package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hyperengineering/forge/internal/builder"
	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/hyperengineering/forge/internal/types"
	"github.com/hyperengineering/forge/internal/validation"
)

// MaxPreviewInputs bounds the turns of one preview request.
const MaxPreviewInputs = 20

// PreviewRequest is the body of POST /api/v1/builder/preview.
type PreviewRequest struct {
	Config moduleconfig.Config `json:"config"`
	Inputs []string            `json:"inputs,omitempty"`
}

// PreviewResponse lists the simulated turns of a preview.
type PreviewResponse struct {
	Exchanges []builder.Exchange `json:"exchanges"`
}

// BuildModule handles POST /api/v1/builder?overwrite=true|false
func (h *Handler) BuildModule(w http.ResponseWriter, r *http.Request) {
	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "overwrite must be a boolean")
			return
		}
		overwrite = v
	}

	var cfg moduleconfig.Config
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	def, err := h.builder.Build(&cfg)
	if err != nil {
		MapError(w, r, err)
		return
	}

	if _, err := h.builder.Write(h.modules.ModulesDir(), def, overwrite); err != nil {
		MapError(w, r, err)
		return
	}

	// The file is written; a failed refresh only delays discovery.
	if err := h.modules.Refresh(); err != nil {
		slog.Warn("refresh after build failed", "component", "api", "module_id", def.ID, "error", err)
	}

	w.Header().Set("Location", "/api/v1/modules/"+def.ID)
	writeJSON(w, http.StatusCreated, types.BuildResponse{
		ID:       def.ID,
		Name:     cfg.Name,
		FileName: def.FileName,
	})
}

// PreviewModule handles POST /api/v1/builder/preview
func (h *Handler) PreviewModule(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	if errs := validatePreviewInputs(req.Inputs); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	exchanges, err := h.builder.Preview(r.Context(), &req.Config, req.Inputs)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Exchanges: exchanges})
}

func validatePreviewInputs(inputs []string) []validation.ValidationError {
	c := &validation.Collector{}
	if len(inputs) > MaxPreviewInputs {
		c.Add(&validation.ValidationError{
			Field:   "inputs",
			Message: fmt.Sprintf("exceeds maximum of %d inputs", MaxPreviewInputs),
		})
	}
	for i, in := range inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		c.Add(validation.ValidateRequired(field, in))
		validation.ValidateText(c, field, in, validation.MaxMessageLength)
	}
	return c.Errors()
}
