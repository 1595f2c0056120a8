package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestConversation_NilContextMarshalsAsEmptyArray(t *testing.T) {
	c := Conversation{
		ID:         "01JTEST000000000000000000",
		UserInput:  "hello",
		AIResponse: "hi there",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"context":[]`) {
		t.Errorf("expected empty context array, got %s", data)
	}
}

func TestConversation_ContextRoles(t *testing.T) {
	c := Conversation{
		Context: []ConversationTurn{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi"},
		},
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `{"role":"user","content":"hello"}`) {
		t.Errorf("user turn not encoded as expected: %s", data)
	}
	if !strings.Contains(string(data), `{"role":"assistant","content":"hi"}`) {
		t.Errorf("assistant turn not encoded as expected: %s", data)
	}
}

func TestModuleStats_ProfileOmittedWhenNil(t *testing.T) {
	data, err := json.Marshal(ModuleStats{LearnedResponses: 3})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "profile") {
		t.Errorf("profile should be omitted, got %s", data)
	}
}

func TestModuleProfile_NilCollections(t *testing.T) {
	data, err := json.Marshal(ModuleProfile{ModuleType: "reasoning"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"capabilities":[]`) {
		t.Errorf("expected empty capabilities, got %s", s)
	}
	if !strings.Contains(s, `"settings":{}`) {
		t.Errorf("expected empty settings, got %s", s)
	}
}

func TestModuleListResponse_NilSlices(t *testing.T) {
	data, err := json.Marshal(ModuleListResponse{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"modules":[],"load_errors":[]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestHistoryResponse_NilConversations(t *testing.T) {
	data, err := json.Marshal(HistoryResponse{Module: "ava"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"conversations":[]`) {
		t.Errorf("expected empty conversations, got %s", data)
	}
}
