// Package builder turns a module configuration assembled by a user into a
// validated, stamped definition file and can preview how it responds.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/hyperengineering/forge/internal/reasoning"
	"github.com/hyperengineering/forge/internal/store"
	"github.com/hyperengineering/forge/internal/types"
)

// ErrDefinitionExists indicates a definition file for the module is
// already present and overwrite was not requested.
var ErrDefinitionExists = errors.New("module definition already exists")

// TotalSections is the number of configuration sections Progress reports on.
const TotalSections = 7

// DefaultPreviewInputs are the turns Preview runs when none are given.
var DefaultPreviewInputs = []string{
	"Hello!",
	"What can you help me with?",
	"Thank you!",
	"Goodbye!",
}

// Definition is a built module definition ready to be written.
type Definition struct {
	ID       string `json:"id"`
	FileName string `json:"file"`
	Data     []byte `json:"-"`
}

// Exchange is one preview turn.
type Exchange struct {
	Input    string `json:"input"`
	Response string `json:"response"`
}

// Missing lists the required items cfg still lacks, in display order.
func Missing(cfg *moduleconfig.Config) []string {
	var missing []string
	if cfg.Name == "" {
		missing = append(missing, "Bot Name")
	}
	if cfg.Description == "" {
		missing = append(missing, "Description")
	}
	if len(cfg.Templates.Greeting) == 0 {
		missing = append(missing, "Greeting Messages")
	}
	if len(cfg.Templates.Question) == 0 {
		missing = append(missing, "Question Response Templates")
	}
	if len(cfg.Templates.Unknown) == 0 {
		missing = append(missing, "Unknown Input Responses")
	}
	return missing
}

// Progress returns how many of TotalSections are complete. Behavior and
// specialization always count because they have defaults.
func Progress(cfg *moduleconfig.Config) int {
	done := 2
	if cfg.Name != "" && cfg.Description != "" {
		done++
	}
	if len(cfg.Personality) > 0 {
		done++
	}
	t := cfg.Templates
	if len(t.Greeting) > 0 && len(t.Question) > 0 && len(t.Unknown) > 0 {
		done++
	}
	if len(cfg.KnowledgeAreas) > 0 {
		done++
	}
	if len(cfg.CustomResponses) > 0 {
		done++
	}
	return done
}

// Builder produces module definitions.
type Builder struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the time source used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// New creates a Builder.
func New(opts ...Option) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "builder")
	return b
}

// Build validates cfg, completes it with defaults and stamps its creation
// time. cfg itself is not modified.
func (b *Builder) Build(cfg *moduleconfig.Config) (*Definition, error) {
	c := *cfg
	moduleconfig.ApplyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	created := b.now().UTC().Truncate(time.Second)
	c.CreatedAt = &created

	data, err := moduleconfig.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("encode module definition: %w", err)
	}

	id := c.ModuleID()
	return &Definition{ID: id, FileName: id + ".yaml", Data: data}, nil
}

// Write stores def in dir and returns the written path. It fails with
// ErrDefinitionExists when the file is present and overwrite is false.
func (b *Builder) Write(dir string, def *Definition, overwrite bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create modules directory: %w", err)
	}

	path := filepath.Join(dir, def.FileName)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%w: %s", ErrDefinitionExists, def.FileName)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("check module definition: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, def.Data, 0644); err != nil {
		return "", fmt.Errorf("write module definition: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errors.Join(fmt.Errorf("finalize module definition: %w", err), os.Remove(tmp))
	}

	b.logger.Info("module definition written",
		"action", "definition_written",
		"module_id", def.ID,
		"path", path,
		"overwrite", overwrite,
	)
	return path, nil
}

// Preview runs cfg as a real module over a throwaway in-memory store and
// returns its reply to each input, carrying history between turns.
func (b *Builder) Preview(ctx context.Context, cfg *moduleconfig.Config, inputs []string, opts ...reasoning.Option) ([]Exchange, error) {
	if len(inputs) == 0 {
		inputs = DefaultPreviewInputs
	}

	s, err := store.NewSQLiteStore(":memory:", store.WithModuleID("preview"))
	if err != nil {
		return nil, fmt.Errorf("open preview store: %w", err)
	}
	defer s.Close()

	m, err := reasoning.New(cfg, s, opts...)
	if err != nil {
		return nil, err
	}

	var history []types.ConversationTurn
	exchanges := make([]Exchange, 0, len(inputs))
	for _, in := range inputs {
		resp, err := m.GenerateResponse(ctx, in, history)
		if err != nil {
			return nil, fmt.Errorf("preview %q: %w", in, err)
		}
		history = append(history,
			types.ConversationTurn{Role: types.RoleUser, Content: in},
			types.ConversationTurn{Role: types.RoleAssistant, Content: resp},
		)
		exchanges = append(exchanges, Exchange{Input: in, Response: resp})
	}
	return exchanges, nil
}
