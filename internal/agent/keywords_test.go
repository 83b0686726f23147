package agent

import (
	"testing"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

func TestIsSpendingOrIncome(t *testing.T) {
	positives := []string{
		"I spent $60 on groceries",
		"paid 45 for parking",
		"I earned $500 from freelance",
		"spent 20 bucks on lunch",
		"$30 for the taxi",
		"i bought lunch today",
		"got $100 from a refund",
	}
	for _, s := range positives {
		if !isSpendingOrIncome(s) {
			t.Errorf("isSpendingOrIncome(%q) = false, want true", s)
		}
	}

	negatives := []string{
		"how much did I spend last month",
		"show my expenses",
		"delete my last transaction",
		"what is my income this year",
	}
	for _, s := range negatives {
		if isSpendingOrIncome(s) {
			t.Errorf("isSpendingOrIncome(%q) = true, want false", s)
		}
	}
}

func TestKeywordClassify(t *testing.T) {
	cases := []struct {
		sentence string
		want     models.Intent
	}{
		{"I spent $60 on groceries", models.IntentCreate},
		{"delete my last transaction", models.IntentDelete},
		{"remove all food expenses", models.IntentDelete},
		{"change my rent budget to 900", models.IntentUpdate},
		{"set up a budget for travel", models.IntentCreate},
		{"add up all my expenses", models.IntentView},
		{"what is my total income", models.IntentView},
		{"show my transactions", models.IntentView},
		{"can you list my categories", models.IntentView},
		{"how much was 300 of that", models.IntentView},
		{"lunch 12.50", models.IntentCreate},
		{"where did my money go", models.IntentView},
	}
	for _, tc := range cases {
		if got := keywordClassify(tc.sentence); got != tc.want {
			t.Errorf("keywordClassify(%q) = %v, want %v", tc.sentence, got, tc.want)
		}
	}
}

func TestPrepareCreate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"add a coffee expense", "add a coffee expense"},
		{"I spent $5 on coffee", "log I spent $5 on coffee"},
		{"I earned $200 from tutoring", "record I earned $200 from tutoring"},
		{"new budget for travel", "add new budget for travel"},
	}
	for _, tc := range cases {
		if got := prepareCreate(tc.in); got != tc.want {
			t.Errorf("prepareCreate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
