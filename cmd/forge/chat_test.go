package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hyperengineering/forge/internal/i18n"
	"github.com/hyperengineering/forge/internal/types"
)

// scriptedModules answers every turn with "echo: <input>" except the
// inputs listed in fail, which get the localized error.
type scriptedModules struct {
	fail      map[string]bool
	histories [][]types.ConversationTurn
}

func (m *scriptedModules) Respond(_ context.Context, _, input string, history []types.ConversationTurn) (string, error) {
	m.histories = append(m.histories, append([]types.ConversationTurn(nil), history...))
	if m.fail[input] {
		err := errors.New("storage failure: disk full")
		return i18n.New("english").T(i18n.MsgErrorGeneratingResponse, map[string]any{"Error": err.Error()}), err
	}
	return "echo: " + input, nil
}

func (m *scriptedModules) Stats(context.Context, string) (*types.ModuleStats, error) {
	return &types.ModuleStats{}, nil
}

func TestChatSession_FailedTurnLeavesHistory(t *testing.T) {
	modules := &scriptedModules{fail: map[string]bool{"break": true}}
	var out bytes.Buffer
	s := &chatSession{
		modules: modules,
		module:  types.ModuleInfo{ID: "a-v-a", Name: "A.v.A"},
		loc:     i18n.New("english"),
		out:     &out,
	}

	if err := s.run(context.Background(), strings.NewReader("first\nbreak\nsecond\n")); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), "A.v.A: Error generating response: storage failure: disk full") {
		t.Errorf("output missing inline error:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "A.v.A: echo: second") {
		t.Errorf("session did not continue after the failed turn:\n%s", out.String())
	}

	if len(modules.histories) != 3 {
		t.Fatalf("turns = %d, want 3", len(modules.histories))
	}
	want := []types.ConversationTurn{
		{Role: types.RoleUser, Content: "first"},
		{Role: types.RoleAssistant, Content: "echo: first"},
	}
	got := modules.histories[2]
	if len(got) != len(want) {
		t.Fatalf("history after failed turn = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if len(s.history) != 4 {
		t.Errorf("final history = %d turns, want 4", len(s.history))
	}
}

func TestChat_Session(t *testing.T) {
	dirs := newTestDirs(t)

	stdin := "hello\n/stats\n/bogus\n/reset\n/quit\n"
	stdout, _, err := executeCmd(t, dirs, stdin, "chat")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	for _, want := range []string{
		"Chatting with A.v.A.",
		"You: ",
		"A.v.A: ",
		"Learned responses:",
		"Total conversations:",
		"Unknown command /bogus",
		"Conversation history cleared.",
		"Goodbye!",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestChat_RecordsExchanges(t *testing.T) {
	dirs := newTestDirs(t)

	if _, _, err := executeCmd(t, dirs, "hello\nwhat is 2 plus 3\n", "chat", "a-v-a"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	stdout, _, err := executeCmd(t, dirs, "", "module", "history", "a-v-a", "--json")
	if err != nil {
		t.Fatalf("module history: %v", err)
	}

	var result struct {
		Conversations []struct {
			UserInput string `json:"user_input"`
		} `json:"conversations"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2", result.Total)
	}
	// Newest first.
	if result.Conversations[0].UserInput != "what is 2 plus 3" || result.Conversations[1].UserInput != "hello" {
		t.Errorf("conversations = %+v", result.Conversations)
	}
}

func TestChat_EndOfInputSaysGoodbye(t *testing.T) {
	dirs := newTestDirs(t)

	stdout, _, err := executeCmd(t, dirs, "", "chat")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(stdout), "Goodbye!") {
		t.Errorf("output = %q, want goodbye at end of input", stdout)
	}
}

func TestChat_UnknownModule(t *testing.T) {
	dirs := newTestDirs(t)

	_, _, err := executeCmd(t, dirs, "", "chat", "ghost")
	if err == nil {
		t.Fatal("expected error for unknown module")
	}
	if err.Error() != "Module ghost is not available" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestChat_Czech(t *testing.T) {
	dirs := newTestDirs(t)
	t.Setenv("FORGE_LANGUAGE", "czech")

	stdout, _, err := executeCmd(t, dirs, "/quit\n", "chat")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(stdout, "Na shledanou!") || strings.Contains(stdout, "Goodbye!") {
		t.Errorf("output = %q, want czech goodbye", stdout)
	}
}
