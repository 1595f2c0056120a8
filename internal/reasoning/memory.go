package reasoning

import (
	"strings"

	"github.com/samber/lo"
)

// Detail levels inferred from input length.
const (
	DetailDetailed = "detailed"
	DetailBrief    = "brief"
)

// memory is the per-instance conversational state. It lives only as long
// as the module instance and is never persisted.
type memory struct {
	limit       int
	topics      []string
	detailLevel string
}

// observe records the first three concepts of a turn, evicting the oldest
// topics past the limit, and updates the detail level when trackPrefs is
// set.
func (m *memory) observe(input string, concepts []string, trackPrefs bool) {
	if len(concepts) > 3 {
		concepts = concepts[:3]
	}
	m.topics = append(m.topics, concepts...)
	if over := len(m.topics) - m.limit; over > 0 {
		m.topics = append([]string(nil), m.topics[over:]...)
	}

	if !trackPrefs {
		return
	}
	switch n := len(strings.Fields(input)); {
	case n > 10:
		m.detailLevel = DetailDetailed
	case n < 3:
		m.detailLevel = DetailBrief
	}
}

// verbosity resolves the "comprehensive" level against the tracked detail
// level: brief askers get concise replies, everyone else detailed ones.
// Other levels pass through.
func (m *memory) verbosity(configured string) string {
	if configured != "comprehensive" {
		return configured
	}
	if m.detailLevel == DetailBrief {
		return "concise"
	}
	return "detailed"
}

func (m *memory) lastTopic() (string, bool) {
	if len(m.topics) == 0 {
		return "", false
	}
	return m.topics[len(m.topics)-1], true
}

func (m *memory) distinctTopics() int {
	return len(lo.Uniq(m.topics))
}
