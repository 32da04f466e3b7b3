package core

import (
	"errors"
	"testing"
)

func TestMatchRuleFirstMatch(t *testing.T) {
	rules := []RecommendationRule{
		{Conditions: []string{"energize"}, TeaType: "Шу Пуэр", Priority: 1},
		{Conditions: []string{"earthy"}, TeaType: "Шен Пуэр", Priority: 2},
	}
	tea, err := MatchRule(QuizAnswers{"q1": "energize"}, rules)
	if err != nil || tea != "Шу Пуэр" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleNoMatch(t *testing.T) {
	rules := []RecommendationRule{
		{Conditions: []string{"energize"}, TeaType: "Шу Пуэр", Priority: 1},
	}
	_, err := MatchRule(QuizAnswers{"q1": "unknown"}, rules)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestMatchRulePriorityOrder(t *testing.T) {
	// lower priority number wins even when listed later
	rules := []RecommendationRule{
		{Conditions: []string{"calm"}, TeaType: "Габа", Priority: 5},
		{Conditions: []string{"calm"}, TeaType: "Белый чай", Priority: 1},
	}
	tea, err := MatchRule(QuizAnswers{"q2": "calm"}, rules)
	if err != nil || tea != "Белый чай" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleStableTieBreak(t *testing.T) {
	// equal priority: stored list order decides
	rules := []RecommendationRule{
		{Conditions: []string{"calm"}, TeaType: "Габа", Priority: 3},
		{Conditions: []string{"calm"}, TeaType: "Улун", Priority: 3},
	}
	tea, err := MatchRule(QuizAnswers{"q2": "calm"}, rules)
	if err != nil || tea != "Габа" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleAllConditionsRequired(t *testing.T) {
	rules := []RecommendationRule{
		{Conditions: []string{"energize", "morning"}, TeaType: "Шу Пуэр", Priority: 1},
		{Conditions: []string{"energize"}, TeaType: "Красный чай", Priority: 2},
	}
	tea, err := MatchRule(QuizAnswers{"q1": "energize", "q3": "evening"}, rules)
	if err != nil || tea != "Красный чай" {
		t.Fatalf("got %q %v", tea, err)
	}

	tea, err = MatchRule(QuizAnswers{"q1": "energize", "q3": "morning"}, rules)
	if err != nil || tea != "Шу Пуэр" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleValuesIgnoreQuestionIDs(t *testing.T) {
	// two different questions sharing a value both satisfy a condition
	rules := []RecommendationRule{
		{Conditions: []string{"earthy"}, TeaType: "Шен Пуэр", Priority: 1},
	}
	tea, err := MatchRule(QuizAnswers{"taste": "earthy"}, rules)
	if err != nil || tea != "Шен Пуэр" {
		t.Fatalf("got %q %v", tea, err)
	}
	tea, err = MatchRule(QuizAnswers{"aroma": "earthy"}, rules)
	if err != nil || tea != "Шен Пуэр" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleEmptyConditionsMatchVacuously(t *testing.T) {
	rules := []RecommendationRule{
		{Conditions: nil, TeaType: "Зелёный чай", Priority: 9},
	}
	tea, err := MatchRule(QuizAnswers{"q1": "anything"}, rules)
	if err != nil || tea != "Зелёный чай" {
		t.Fatalf("got %q %v", tea, err)
	}
}

func TestMatchRuleDoesNotMutateRules(t *testing.T) {
	rules := []RecommendationRule{
		{Conditions: []string{"calm"}, TeaType: "Габа", Priority: 2},
		{Conditions: []string{"calm"}, TeaType: "Белый чай", Priority: 1},
	}
	_, _ = MatchRule(QuizAnswers{"q1": "calm"}, rules)
	if rules[0].TeaType != "Габа" || rules[1].TeaType != "Белый чай" {
		t.Fatalf("rule slice was reordered: %+v", rules)
	}
}
