package agent

import (
	"regexp"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

// Lexical tables for the deterministic keyword judge. Precedence when
// matching: delete > update > insert > view > numeric heuristics > shape.
var (
	insertKeywords = []string{
		"add", "insert", "create", "record", "log", "enter", "save",
		"new", "make", "set", "establish", "input", "register",
		"spent", "bought", "paid", "cost", "expense", "purchase",
		"earned", "made", "received", "income", "got", "gained",
	}

	updateKeywords = []string{
		"update", "change", "modify", "edit", "alter", "adjust",
		"revise", "correct", "fix", "amend", "set to", "change to",
		"increase", "decrease", "raise", "lower",
	}

	deleteKeywords = []string{
		"delete", "remove", "erase", "clear", "drop", "cancel",
		"undo", "eliminate",
	}

	viewKeywords = []string{
		"show", "view", "display", "list", "get", "see", "find",
		"what", "how", "where", "when", "who", "which",
		"check", "review", "look up", "search", "query",
		"total", "sum", "calculate", "compute", "amount of",
	}
)

var (
	spendingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(spent|paid|cost|bought)\s+\$?\d+`),
		regexp.MustCompile(`\$?\d+\s+(on|for)\s+\w+`),
		regexp.MustCompile(`i\s+(spent|paid|bought|cost)\s+\$?\d+`),
		regexp.MustCompile(`\$?\d+\s+(dollars|bucks)\s+(on|for)`),
	}

	incomePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(earned|made|received|got)\s+\$?\d+`),
		regexp.MustCompile(`\$?\d+\s+from\s+\w+`),
		regexp.MustCompile(`i\s+(earned|made|received|got)\s+\$?\d+`),
	}

	amountForRe    = regexp.MustCompile(`\$?\d+(\.\d{2})?\s+(on|for)`)
	bareSpentRe    = regexp.MustCompile(`^i\s+(spent|bought|paid|cost)\s+`)
	numericRe      = regexp.MustCompile(`\$?\d+(\.\d{2})?`)
	questionStarts = []string{"what", "how", "where", "when", "who", "which"}
)

// isSpendingOrIncome reports whether a sentence states a spend or an income
// event. These phrasings are unambiguous CREATEs; the engine is unreliable at
// telling "I spent $60" apart from similarly worded questions, so they bypass
// it entirely.
func isSpendingOrIncome(sentence string) bool {
	s := strings.ToLower(sentence)

	for _, re := range spendingPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	for _, re := range incomePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	if amountForRe.MatchString(s) {
		return true
	}
	return bareSpentRe.MatchString(s)
}

// keywordClassify derives an intent from lexical tables alone. Deterministic
// and total: always returns a valid intent.
func keywordClassify(sentence string) models.Intent {
	s := strings.ToLower(sentence)

	if isSpendingOrIncome(sentence) {
		return models.IntentCreate
	}

	if containsAny(s, deleteKeywords) {
		return models.IntentDelete
	}

	if containsAny(s, updateKeywords) {
		// "set up a budget" is establishment, not modification
		if strings.Contains(s, "set up") || strings.Contains(s, "setup") {
			return models.IntentCreate
		}
		return models.IntentUpdate
	}

	if containsAny(s, insertKeywords) {
		// "add up", "total", "sum" ask for an aggregate, not a new record
		if strings.Contains(s, "add up") || strings.Contains(s, "total") || strings.Contains(s, "sum") {
			return models.IntentView
		}
		return models.IntentCreate
	}

	if containsAny(s, viewKeywords) {
		return models.IntentView
	}

	if numericRe.MatchString(s) {
		if strings.Contains(s, "how much") || strings.Contains(s, "what is") || strings.Contains(s, "what was") {
			return models.IntentView
		}
		return models.IntentCreate
	}

	for _, w := range questionStarts {
		if strings.HasPrefix(s, w) {
			return models.IntentView
		}
	}
	if strings.HasSuffix(s, "?") || strings.Contains(s, "can you") || strings.Contains(s, "could you") {
		return models.IntentView
	}

	// Short declaratives are more likely statements of fact to record.
	if strings.Contains(s, ".") || len(strings.Fields(s)) <= 10 {
		return models.IntentCreate
	}

	return models.IntentView
}

// prepareCreate prefixes an ambiguous create phrasing with an explicit
// imperative so downstream synthesis sees an unambiguous instruction.
func prepareCreate(sentence string) string {
	s := strings.ToLower(sentence)

	if containsAny(s, []string{"add", "log", "record", "enter", "save"}) {
		return sentence
	}
	if containsAny(s, []string{"spent", "paid", "bought", "cost"}) {
		return "log " + sentence
	}
	if containsAny(s, []string{"earned", "made", "received", "got", "income"}) {
		return "record " + sentence
	}
	return "add " + sentence
}

// enhanceForHandler normalizes a sentence for a specific mutation handler.
func enhanceForHandler(sentence string, intent models.Intent) string {
	s := strings.ToLower(sentence)

	switch intent {
	case models.IntentCreate:
		if !containsAny(s, []string{"add", "log", "record", "create"}) {
			return "log " + sentence
		}
	case models.IntentUpdate:
		if !containsAny(s, []string{"change", "update", "modify"}) {
			return "change " + sentence
		}
	}
	return sentence
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
