package validation

import (
	"strings"
	"testing"

	"github.com/hyperengineering/forge/internal/types"
)

func TestFieldValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string // empty means valid
	}{
		{"utf8 ascii", ValidateUTF8("name", "Chef Bot"), ""},
		{"utf8 czech", ValidateUTF8("name", "Příliš žluťoučký kůň"), ""},
		{"utf8 invalid", ValidateUTF8("name", string([]byte{0xff, 0xfe})), "must be valid UTF-8"},
		{"null clean", ValidateNoNullBytes("message", "hello"), ""},
		{"null byte", ValidateNoNullBytes("message", "hel\x00lo"), "must not contain null bytes"},
		{"length within", ValidateMaxLength("message", "abc", 5), ""},
		{"length at limit", ValidateMaxLength("message", "abcde", 5), ""},
		{"length exceeds", ValidateMaxLength("message", "abcdef", 5), "exceeds maximum length of 5 characters"},
		{"length counts runes", ValidateMaxLength("message", "čšřžý", 5), ""},
		{"length runes exceed", ValidateMaxLength("message", "čšřžýá", 5), "exceeds maximum length of 5 characters"},
		{"required present", ValidateRequired("name", "A.v.A"), ""},
		{"required empty", ValidateRequired("name", ""), "is required"},
		{"required blank", ValidateRequired("name", " \t\n"), "is required"},
		{"enum member", ValidateEnum("behavior.response_style", "casual", []string{"formal", "casual"}), ""},
		{"enum case sensitive", ValidateEnum("behavior.response_style", "Casual", []string{"formal", "casual"}), "must be one of: formal, casual"},
		{"int range within", ValidateIntRange("behavior.creativity_level", 7, 1, 10), ""},
		{"int range low", ValidateIntRange("behavior.creativity_level", 0, 1, 10), "must be between 1 and 10"},
		{"int range high", ValidateIntRange("behavior.creativity_level", 11, 1, 10), "must be between 1 and 10"},
		{"list with entry", ValidateNonEmptyList("templates.greeting", []string{"", "Hi!"}), ""},
		{"list nil", ValidateNonEmptyList("templates.greeting", nil), "must contain at least one entry"},
		{"list blank entries", ValidateNonEmptyList("templates.greeting", []string{" ", ""}), "must contain at least one entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantMsg == "" {
				if tt.err != nil {
					t.Errorf("unexpected error: %+v", tt.err)
				}
				return
			}
			if tt.err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantMsg)
			}
			if tt.err.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", tt.err.Message, tt.wantMsg)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	c := &Collector{}
	if c.HasErrors() || len(c.Errors()) != 0 {
		t.Fatal("new collector should be empty")
	}

	c.Add(nil)
	c.Add(ValidateRequired("name", ""))
	c.Add(nil)
	c.Add(ValidateRequired("description", ""))

	if !c.HasErrors() {
		t.Error("HasErrors() = false after adding errors")
	}
	errs := c.Errors()
	if len(errs) != 2 || errs[0].Field != "name" || errs[1].Field != "description" {
		t.Errorf("Errors() = %v, want name then description", errs)
	}
}

// --- ValidateChatRequest Tests ---

func TestValidateChatRequest_Valid(t *testing.T) {
	req := types.ChatRequest{
		Message: "What is 3 + 4?",
		History: []types.ConversationTurn{
			{Role: types.RoleUser, Content: "Hello"},
			{Role: types.RoleAssistant, Content: "Hi there!"},
		},
	}

	if errs := ValidateChatRequest(req); len(errs) != 0 {
		t.Errorf("ValidateChatRequest(valid) = %v, want no errors", errs)
	}
}

func TestValidateChatRequest_MessageRequired(t *testing.T) {
	errs := ValidateChatRequest(types.ChatRequest{Message: "  "})
	if len(errs) != 1 || errs[0].Field != "message" {
		t.Errorf("ValidateChatRequest(blank) = %v, want one message error", errs)
	}
}

func TestValidateChatRequest_MessageTooLong(t *testing.T) {
	errs := ValidateChatRequest(types.ChatRequest{Message: strings.Repeat("a", MaxMessageLength+1)})
	found := false
	for _, e := range errs {
		if e.Field == "message" && strings.Contains(e.Message, "4000") {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateChatRequest(too long) missing length error, got: %v", errs)
	}
}

func TestValidateChatRequest_BadHistoryRole(t *testing.T) {
	req := types.ChatRequest{
		Message: "hi",
		History: []types.ConversationTurn{
			{Role: types.RoleUser, Content: "ok"},
			{Role: "system", Content: "bad\x00"},
		},
	}

	errs := ValidateChatRequest(req)
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	if !fields["history[1].role"] {
		t.Errorf("missing history[1].role error, got: %v", errs)
	}
	if !fields["history[1].content"] {
		t.Errorf("missing history[1].content error, got: %v", errs)
	}
	if fields["history[0].role"] {
		t.Errorf("unexpected error on valid turn, got: %v", errs)
	}
}

func TestValidateChatRequest_TooManyTurns(t *testing.T) {
	history := make([]types.ConversationTurn, MaxHistoryTurns+1)
	for i := range history {
		history[i] = types.ConversationTurn{Role: types.RoleUser, Content: "x"}
	}

	errs := ValidateChatRequest(types.ChatRequest{Message: "hi", History: history})
	if len(errs) != 1 || errs[0].Field != "history" {
		t.Errorf("ValidateChatRequest(too many turns) = %v, want one history error", errs)
	}
}

func TestValidateText_CollectsAll(t *testing.T) {
	c := &Collector{}
	ValidateText(c, "name", string([]byte{0xff})+"\x00"+strings.Repeat("a", 10), 5)
	if len(c.Errors()) != 3 {
		t.Errorf("ValidateText collected %d errors, want 3: %v", len(c.Errors()), c.Errors())
	}
}
