// Package i18n localizes the user-visible messages of forge.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	gi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message IDs.
const (
	MsgErrorGeneratingResponse = "error_generating_response"
	MsgErrorModuleNotFound     = "error_module_not_found"
	MsgErrorLoadingModule      = "error_loading_module"
	MsgChatWelcome             = "chat_welcome"
	MsgChatPrompt              = "chat_prompt"
	MsgChatHistoryCleared      = "chat_history_cleared"
	MsgChatGoodbye             = "chat_goodbye"
	MsgChatUnknownCommand      = "chat_unknown_command"
	MsgStatsLearnedResponses   = "stats_learned_responses"
	MsgStatsTotalConversations = "stats_total_conversations"
	MsgStatsAvgConfidence      = "stats_avg_confidence"
	MsgStatsActivePatterns     = "stats_active_patterns"
)

var preferences = map[string]language.Tag{
	"english":    language.English,
	"czech":      language.Czech,
	"spanish":    language.Spanish,
	"french":     language.French,
	"german":     language.German,
	"italian":    language.Italian,
	"portuguese": language.Portuguese,
}

var bundle = mustBundle()

func mustBundle() *gi18n.Bundle {
	b := gi18n.NewBundle(language.English)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(fmt.Sprintf("i18n: read embedded locales: %v", err))
	}
	for _, e := range entries {
		if _, err := b.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
			panic(fmt.Sprintf("i18n: load %s: %v", e.Name(), err))
		}
	}
	return b
}

// Language maps a language preference to a tag. Preferences are the
// language names modules use ("czech"), BCP 47 tags ("cs") or "auto",
// which reads the LANG environment variable. Unknown values yield
// language.Und, which localizes to English.
func Language(pref string) language.Tag {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if tag, ok := preferences[pref]; ok {
		return tag
	}
	if pref == "" || pref == "auto" {
		pref = posixLocale(os.Getenv("LANG"))
	}
	tag, err := language.Parse(pref)
	if err != nil {
		return language.Und
	}
	return tag
}

// Supported reports whether pref names a language or is "auto".
func Supported(pref string) bool {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if pref == "" || pref == "auto" {
		return true
	}
	if _, ok := preferences[pref]; ok {
		return true
	}
	_, err := language.Parse(pref)
	return err == nil
}

// posixLocale turns "cs_CZ.UTF-8" into "cs-CZ".
func posixLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "C" || v == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(v, "_", "-")
}

// Localizer translates message IDs for one language.
type Localizer struct {
	tag language.Tag
	loc *gi18n.Localizer
}

// New returns a Localizer for a language preference.
func New(pref string) *Localizer {
	tag := Language(pref)
	return &Localizer{tag: tag, loc: gi18n.NewLocalizer(bundle, tag.String())}
}

// Tag returns the requested language.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// T returns the message for id rendered with data. Unknown IDs are
// returned unchanged.
func (l *Localizer) T(id string, data map[string]any) string {
	msg, err := l.loc.Localize(&gi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}
