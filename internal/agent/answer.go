package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

const maxRowsForExtraction = 15

// scrubbedMarker replaces placeholder tokens the engine was told not to emit
// but sometimes does anyway.
const scrubbedMarker = "[data not available]"

var (
	templatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\[[^\]]+\]`),
		regexp.MustCompile(`\[[^\]]+\]`),
		regexp.MustCompile(`INSERT_[A-Z_]+`),
	}

	answerNumberRe = regexp.MustCompile(`\$?(\d+\.?\d*)`)

	moneyColumnWords   = []string{"amount", "total", "sum", "planned", "actual", "value", "number"}
	contextColumnWords = []string{"total", "amount", "sum", "count"}
)

// ScrubArtifacts replaces any placeholder-shaped token in an engine answer
// with a fixed marker. The engine's instruction-following is not trusted;
// this is the deterministic safety net behind the prompt rules.
func ScrubArtifacts(answer string) string {
	cleaned := answer
	for _, re := range templatePatterns {
		cleaned = re.ReplaceAllStringFunc(cleaned, func(m string) string {
			if m == scrubbedMarker {
				return m
			}
			return scrubbedMarker
		})
	}
	return cleaned
}

func isMoneyColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range moneyColumnWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// formatForExtraction renders result rows and aggregate statistics as the
// only data the extraction prompt may quote from.
func formatForExtraction(res *models.QueryResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Columns: %s\n\nData:\n", strings.Join(res.Columns, ", "))

	if len(res.Rows) == 0 {
		b.WriteString("NO DATA FOUND\n")
		return b.String()
	}

	shown := res.Rows
	if len(shown) > maxRowsForExtraction {
		shown = shown[:maxRowsForExtraction]
	}
	for i, row := range shown {
		cells := make([]string, len(row))
		for j, val := range row {
			if val == nil {
				cells[j] = "NULL"
			} else {
				cells[j] = fmt.Sprint(val)
			}
		}
		fmt.Fprintf(&b, "Row %d: %s\n", i+1, strings.Join(cells, " | "))
	}
	if len(res.Rows) > maxRowsForExtraction {
		fmt.Fprintf(&b, "\n... and %d more rows\n", len(res.Rows)-maxRowsForExtraction)
	}

	wroteHeader := false
	for idx, col := range res.Columns {
		if !isMoneyColumn(col) {
			continue
		}
		values := numericColumn(res.Rows, idx)
		if len(values) == 0 {
			continue
		}
		if !wroteHeader {
			b.WriteString("\nKey Numeric Values Found:\n")
			wroteHeader = true
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		fmt.Fprintf(&b, "- %s: %d values, sum: %.2f, avg: %.2f\n",
			col, len(values), sum, sum/float64(len(values)))
	}

	return b.String()
}

// directResponse formats an answer without the engine. Used when the
// extraction call fails; phrasing follows intent keywords in the original
// sentence.
func directResponse(res *models.QueryResult, sentence string) string {
	if res == nil || len(res.Rows) == 0 {
		return "No information found for your query."
	}

	for idx, col := range res.Columns {
		if !isMoneyColumn(col) {
			continue
		}
		values := numericColumn(res.Rows, idx)
		if len(values) == 0 {
			continue
		}
		total := 0.0
		for _, v := range values {
			total += v
		}
		formatted := formatDollars(total)

		s := strings.ToLower(sentence)
		switch {
		case containsAny(s, []string{"spent", "expense", "cost"}):
			return "Total expenses: " + formatted
		case containsAny(s, []string{"income", "earned", "revenue"}):
			return "Total income: " + formatted
		case containsAny(s, []string{"budget", "planned"}):
			return "Total budget: " + formatted
		default:
			return "Total amount: " + formatted
		}
	}

	if names := stringColumn(res, "display_name"); len(names) > 0 {
		return "Found: " + strings.Join(names, ", ")
	}
	if names := stringColumn(res, "business_name"); len(names) > 0 {
		return "Business: " + names[0]
	}

	if len(res.Rows) == 1 && len(res.Rows[0]) == 1 {
		val := res.Rows[0][0]
		if val != nil {
			if f, ok := asFloat(val); ok {
				return "Amount: " + formatDollars(f)
			}
			return fmt.Sprintf("Result: %v", val)
		}
	}

	return fmt.Sprintf("Found %d records matching your query.", len(res.Rows))
}

// extractContextValues pulls numeric substrings from an answer, plus the
// first-row value of any total/amount/sum/count column, for the conversation
// context. Advisory only.
func extractContextValues(answer string, res *models.QueryResult) map[string]string {
	out := make(map[string]string)

	if matches := answerNumberRe.FindAllStringSubmatch(answer, -1); len(matches) > 0 {
		nums := make([]string, len(matches))
		for i, m := range matches {
			nums[i] = m[1]
		}
		out["last_extracted_values"] = strings.Join(nums, ",")
	}

	if res != nil && len(res.Rows) > 0 {
		first := res.Rows[0]
		for i, col := range res.Columns {
			if i >= len(first) || first[i] == nil {
				continue
			}
			lower := strings.ToLower(col)
			for _, w := range contextColumnWords {
				if strings.Contains(lower, w) {
					out["last_"+col] = fmt.Sprint(first[i])
					break
				}
			}
		}
	}

	return out
}

func numericColumn(rows [][]any, idx int) []float64 {
	var values []float64
	for _, row := range rows {
		if idx >= len(row) || row[idx] == nil {
			continue
		}
		if f, ok := asFloat(row[idx]); ok {
			values = append(values, f)
		}
	}
	return values
}

func stringColumn(res *models.QueryResult, name string) []string {
	idx := -1
	for i, col := range res.Columns {
		if col == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	var out []string
	for _, row := range res.Rows {
		if idx < len(row) && row[idx] != nil {
			out = append(out, fmt.Sprint(row[idx]))
		}
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimPrefix(n, "$"), 64)
		return f, err == nil
	default:
		// pgx numeric and similar driver types stringify cleanly
		f, err := strconv.ParseFloat(fmt.Sprint(v), 64)
		return f, err == nil
	}
}

func formatDollars(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]
	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	out := "$" + strings.Join(parts, ",") + frac
	if neg {
		return "-" + out
	}
	return out
}
