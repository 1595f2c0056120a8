package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/forge/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// timeFormat is fixed-width so lexical order in SQLite matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

const (
	counterLearnedResponses   = "learned_responses"
	counterTotalConversations = "total_conversations"
)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithModuleID sets the module identity used in log records.
func WithModuleID(id string) Option {
	return func(s *SQLiteStore) {
		s.moduleID = id
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// SQLiteStore is the SQLite-backed pattern store of one module.
type SQLiteStore struct {
	db       *sql.DB
	moduleID string
	now      func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbPath, applies pragmas and runs migrations.
// dbPath may be ":memory:" for an ephemeral store.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each pooled connection would otherwise see its own empty in-memory database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetPatterns returns every learned pattern ordered by confidence, then usage.
func (s *SQLiteStore) GetPatterns(ctx context.Context) ([]types.LearnedPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, response, confidence, usage_count, last_used, created_at
		FROM learned_patterns
		ORDER BY confidence DESC, usage_count DESC, pattern ASC
	`)
	if err != nil {
		return nil, storageError("query patterns", err)
	}
	defer rows.Close()

	var patterns []types.LearnedPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, storageError("scan pattern", err)
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate patterns", err)
	}

	return patterns, nil
}

// GetPattern returns a single pattern or ErrNotFound.
func (s *SQLiteStore) GetPattern(ctx context.Context, pattern string) (*types.LearnedPattern, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT pattern, response, confidence, usage_count, last_used, created_at
		FROM learned_patterns
		WHERE pattern = ?
	`, pattern)

	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("get pattern", err)
	}
	return p, nil
}

// UpsertPattern inserts a pattern with usage_count 0, or overwrites the
// response and confidence of an existing one and increments its usage_count.
func (s *SQLiteStore) UpsertPattern(ctx context.Context, pattern, response string, confidence float64) error {
	return s.UpsertPatterns(ctx, []string{pattern}, response, confidence)
}

// UpsertPatterns applies UpsertPattern to every pattern in one transaction
// and refreshes the learned_responses counter.
func (s *SQLiteStore) UpsertPatterns(ctx context.Context, patterns []string, response string, confidence float64) error {
	if err := checkPatterns(patterns, confidence); err != nil {
		return err
	}
	if len(patterns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.upsertPatternsTx(ctx, tx, patterns, response, confidence, s.now().UTC().Format(timeFormat)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageError("commit upsert", err)
	}

	s.logLearned(len(patterns), confidence)
	return nil
}

func checkPatterns(patterns []string, confidence float64) error {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return ErrEmptyPattern
		}
	}
	return nil
}

func (s *SQLiteStore) upsertPatternsTx(ctx context.Context, tx *sql.Tx, patterns []string, response string, confidence float64, now string) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO learned_patterns (pattern, response, confidence, usage_count, last_used, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT(pattern) DO UPDATE SET
			response = excluded.response,
			confidence = excluded.confidence,
			usage_count = learned_patterns.usage_count + 1,
			last_used = excluded.last_used
	`)
	if err != nil {
		return storageError("prepare upsert", err)
	}
	defer stmt.Close()

	for _, p := range patterns {
		if _, err := stmt.ExecContext(ctx, p, response, confidence, now, now); err != nil {
			return storageError("upsert pattern", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE module_stats
		SET value = (SELECT COUNT(*) FROM learned_patterns), updated_at = ?
		WHERE key = ?
	`, now, counterLearnedResponses); err != nil {
		return storageError("update learned counter", err)
	}
	return nil
}

func (s *SQLiteStore) logLearned(count int, confidence float64) {
	slog.Debug("patterns learned",
		"component", "store",
		"action", "pattern_learned",
		"module_id", s.moduleID,
		"count", count,
		"confidence", confidence,
	)
}

// DeletePattern removes a pattern. It is an administrative operation; the
// learning engine never deletes.
func (s *SQLiteStore) DeletePattern(ctx context.Context, pattern string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM learned_patterns WHERE pattern = ?`, pattern)
	if err != nil {
		return storageError("delete pattern", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("delete pattern", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE module_stats
		SET value = (SELECT COUNT(*) FROM learned_patterns), updated_at = ?
		WHERE key = ?
	`, s.now().UTC().Format(timeFormat), counterLearnedResponses); err != nil {
		return storageError("update learned counter", err)
	}

	if err := tx.Commit(); err != nil {
		return storageError("commit delete", err)
	}

	slog.Info("pattern deleted",
		"component", "store",
		"action", "pattern_deleted",
		"module_id", s.moduleID,
	)
	return nil
}

// AppendConversation logs one exchange together with the history that preceded it.
func (s *SQLiteStore) AppendConversation(ctx context.Context, userInput, aiResponse string, history []types.ConversationTurn) (*types.Conversation, error) {
	return s.RecordTurn(ctx, TurnRecord{UserInput: userInput, AIResponse: aiResponse, History: history})
}

// RecordTurn upserts the turn's learned patterns and logs the exchange in
// one transaction. Either both are written or neither is.
func (s *SQLiteStore) RecordTurn(ctx context.Context, turn TurnRecord) (*types.Conversation, error) {
	if err := checkPatterns(turn.Patterns, turn.Confidence); err != nil {
		return nil, err
	}

	conv := &types.Conversation{
		ID:         ulid.Make().String(),
		UserInput:  turn.UserInput,
		AIResponse: turn.AIResponse,
		Context:    turn.History,
		Timestamp:  s.now().UTC(),
	}

	var contextJSON sql.NullString
	if len(turn.History) > 0 {
		data, err := json.Marshal(turn.History)
		if err != nil {
			return nil, fmt.Errorf("marshal conversation context: %w", err)
		}
		contextJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer tx.Rollback()

	ts := conv.Timestamp.Format(timeFormat)
	if len(turn.Patterns) > 0 {
		if err := s.upsertPatternsTx(ctx, tx, turn.Patterns, turn.AIResponse, turn.Confidence, ts); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_input, ai_response, context, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, conv.ID, turn.UserInput, turn.AIResponse, contextJSON, ts); err != nil {
		return nil, storageError("insert conversation", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE module_stats SET value = value + 1, updated_at = ? WHERE key = ?
	`, ts, counterTotalConversations); err != nil {
		return nil, storageError("update conversation counter", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageError("commit conversation", err)
	}

	if len(turn.Patterns) > 0 {
		s.logLearned(len(turn.Patterns), turn.Confidence)
	}
	return conv, nil
}

// GetConversations returns up to limit exchanges, most recent first.
func (s *SQLiteStore) GetConversations(ctx context.Context, limit int) ([]types.Conversation, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_input, ai_response, context, created_at
		FROM conversations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageError("query conversations", err)
	}
	defer rows.Close()

	var result []types.Conversation
	for rows.Next() {
		var (
			c         types.Conversation
			ctxJSON   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.UserInput, &c.AIResponse, &ctxJSON, &createdAt); err != nil {
			return nil, storageError("scan conversation", err)
		}
		if ctxJSON.Valid && ctxJSON.String != "" {
			if err := json.Unmarshal([]byte(ctxJSON.String), &c.Context); err != nil {
				return nil, fmt.Errorf("decode conversation %s context: %w", c.ID, err)
			}
		}
		c.Timestamp = parseTime(createdAt)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate conversations", err)
	}

	return result, nil
}

// GetStats returns the two persisted counters plus the aggregates derived
// from the current pattern table.
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.ModuleStats, error) {
	stats := &types.ModuleStats{}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM module_stats`)
	if err != nil {
		return nil, storageError("query counters", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value int64
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageError("scan counter", err)
		}
		switch key {
		case counterLearnedResponses:
			stats.LearnedResponses = value
		case counterTotalConversations:
			stats.TotalConversations = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate counters", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(confidence), 0),
		       COUNT(CASE WHEN usage_count > 0 THEN 1 END)
		FROM learned_patterns
	`).Scan(&stats.AvgConfidence, &stats.ActivePatterns)
	if err != nil {
		return nil, storageError("aggregate patterns", err)
	}

	return stats, nil
}

// Snapshot writes a consistent copy of the database to destPath.
// An existing file at destPath is replaced.
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if dir := filepath.Dir(destPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	tmpPath := destPath + ".tmp"
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, tmpPath); err != nil {
		return storageError("vacuum into snapshot", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	slog.Info("snapshot written",
		"component", "store",
		"action", "snapshot_written",
		"module_id", s.moduleID,
		"path", destPath,
	)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*types.LearnedPattern, error) {
	var (
		p         types.LearnedPattern
		lastUsed  string
		createdAt string
	)
	if err := row.Scan(&p.Pattern, &p.Response, &p.Confidence, &p.UsageCount, &lastUsed, &createdAt); err != nil {
		return nil, err
	}
	p.LastUsed = parseTime(lastUsed)
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// parseTime accepts the store's fixed format and plain RFC3339 values.
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeFormat, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
