package agent

import (
	"regexp"
	"strings"
)

var (
	sqlVerbPrefixes = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"}
	sqlExtractRe    = regexp.MustCompile(`(?is)(SELECT|INSERT|UPDATE|DELETE|WITH)\b.*`)

	explanatoryMarkers = []string{
		"here is", "generated sql", "sql query", "query:",
		"```", "the query is", "sql:", "answer:",
	}
)

// CleanSQL reduces a raw engine response to pure SQL. Deterministic and
// side-effect-free; cleaning already-clean SQL returns it unchanged, and the
// function is idempotent over its own output.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if startsWithSQLVerb(s) {
		return s
	}

	s = stripCodeFences(s)
	if startsWithSQLVerb(s) {
		return s
	}

	// Drop lines that are purely explanatory, then rejoin.
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		explanatory := false
		for _, marker := range explanatoryMarkers {
			if strings.Contains(lower, marker) {
				explanatory = true
				break
			}
		}
		if explanatory {
			continue
		}
		kept = append(kept, trimmed)
	}
	s = strings.Join(kept, " ")

	// Discard any remaining prefix text before the first SQL verb.
	if m := sqlExtractRe.FindString(s); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(s)
}

func startsWithSQLVerb(s string) bool {
	upper := strings.ToUpper(s)
	for _, verb := range sqlVerbPrefixes {
		if strings.HasPrefix(upper, verb) {
			return true
		}
	}
	return false
}

func stripCodeFences(s string) string {
	if start := strings.Index(s, "```sql"); start != -1 {
		body := s[start+len("```sql"):]
		if end := strings.Index(body, "```"); end != -1 {
			return strings.TrimSpace(body[:end])
		}
	}
	if start := strings.Index(s, "```"); start != -1 {
		body := s[start+3:]
		if end := strings.Index(body, "```"); end != -1 {
			return strings.TrimSpace(body[:end])
		}
	}
	return s
}
