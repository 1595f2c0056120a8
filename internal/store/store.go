package store

import (
	"context"

	"github.com/hyperengineering/forge/internal/types"
)

// Store defines the contract for a single module's pattern namespace.
// Every handle is scoped to one module; there is no cross-module access.
type Store interface {
	GetPatterns(ctx context.Context) ([]types.LearnedPattern, error)
	GetPattern(ctx context.Context, pattern string) (*types.LearnedPattern, error)
	UpsertPattern(ctx context.Context, pattern, response string, confidence float64) error
	UpsertPatterns(ctx context.Context, patterns []string, response string, confidence float64) error
	DeletePattern(ctx context.Context, pattern string) error
	AppendConversation(ctx context.Context, userInput, aiResponse string, history []types.ConversationTurn) (*types.Conversation, error)
	RecordTurn(ctx context.Context, turn TurnRecord) (*types.Conversation, error)
	GetConversations(ctx context.Context, limit int) ([]types.Conversation, error)
	GetStats(ctx context.Context) (*types.ModuleStats, error)
	Snapshot(ctx context.Context, destPath string) error
	Close() error
}

// TurnRecord is one completed exchange together with what it teaches.
// Patterns are upserted with AIResponse as their response. An empty
// Patterns logs the exchange only.
type TurnRecord struct {
	UserInput  string
	AIResponse string
	History    []types.ConversationTurn
	Patterns   []string
	Confidence float64
}
