// Package module defines the contract every conversational module satisfies
// and the shared pattern-learning behavior behind it.
package module

import (
	"context"

	"github.com/hyperengineering/forge/internal/store"
	"github.com/hyperengineering/forge/internal/types"
)

// Module is the capability set the registry routes turns to.
type Module interface {
	// Info identifies the module.
	Info() types.ModuleInfo

	// GenerateResponse produces the reply for one user turn. history holds
	// the caller's in-memory conversation and is never mutated.
	GenerateResponse(ctx context.Context, input string, history []types.ConversationTurn) (string, error)

	// Converse generates the reply for one turn and commits its learning
	// and conversation row together. On error nothing is written.
	Converse(ctx context.Context, input string, history []types.ConversationTurn) (string, error)

	// RecordExchange appends a completed turn to the module's conversation log.
	RecordExchange(ctx context.Context, input, response string, history []types.ConversationTurn) error

	// Stats returns the module's aggregate statistics.
	Stats(ctx context.Context) (*types.ModuleStats, error)

	// History returns up to limit logged exchanges, most recent first.
	History(ctx context.Context, limit int) ([]types.Conversation, error)
}

// PatternStore is the storage a Learner needs. store.Store satisfies it.
type PatternStore interface {
	GetPatterns(ctx context.Context) ([]types.LearnedPattern, error)
	UpsertPatterns(ctx context.Context, patterns []string, response string, confidence float64) error
	AppendConversation(ctx context.Context, userInput, aiResponse string, history []types.ConversationTurn) (*types.Conversation, error)
	RecordTurn(ctx context.Context, turn store.TurnRecord) (*types.Conversation, error)
	GetConversations(ctx context.Context, limit int) ([]types.Conversation, error)
	GetStats(ctx context.Context) (*types.ModuleStats, error)
}
