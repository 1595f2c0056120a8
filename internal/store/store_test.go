package store

import (
	"context"

	"github.com/hyperengineering/forge/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)

func (m *mockStore) GetPatterns(ctx context.Context) ([]types.LearnedPattern, error) {
	return nil, nil
}
func (m *mockStore) GetPattern(ctx context.Context, pattern string) (*types.LearnedPattern, error) {
	return nil, nil
}
func (m *mockStore) UpsertPattern(ctx context.Context, pattern, response string, confidence float64) error {
	return nil
}
func (m *mockStore) UpsertPatterns(ctx context.Context, patterns []string, response string, confidence float64) error {
	return nil
}
func (m *mockStore) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}
func (m *mockStore) AppendConversation(ctx context.Context, userInput, aiResponse string, history []types.ConversationTurn) (*types.Conversation, error) {
	return nil, nil
}
func (m *mockStore) RecordTurn(ctx context.Context, turn TurnRecord) (*types.Conversation, error) {
	return nil, nil
}
func (m *mockStore) GetConversations(ctx context.Context, limit int) ([]types.Conversation, error) {
	return nil, nil
}
func (m *mockStore) GetStats(ctx context.Context) (*types.ModuleStats, error) {
	return nil, nil
}
func (m *mockStore) Snapshot(ctx context.Context, destPath string) error {
	return nil
}
func (m *mockStore) Close() error {
	return nil
}

// SQLiteStore must satisfy Store.
var _ Store = (*SQLiteStore)(nil)
