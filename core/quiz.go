package core

import (
	"errors"
	"sort"
)

// ErrNoMatch reports that no recommendation rule was satisfied. It is an
// expected outcome, not a fault: the caller falls back to its default
// recommendation.
var ErrNoMatch = errors.New("no recommendation rule matched")

// QuizOption is one selectable answer of a quiz question.
type QuizOption struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// QuizQuestion is one admin-authored question with its options.
type QuizQuestion struct {
	ID      string       `json:"id" yaml:"id"`
	Prompt  string       `json:"prompt" yaml:"prompt"`
	Options []QuizOption `json:"options" yaml:"options"`
}

// RecommendationRule maps a set of required answer values to a tea type.
// Conditions reference option values only, not question ids: the same
// value appearing under any question satisfies the condition.
type RecommendationRule struct {
	Conditions []string `json:"conditions" yaml:"conditions"`
	TeaType    string   `json:"tea_type" yaml:"tea_type"`
	Priority   int      `json:"priority" yaml:"priority"`
}

// QuizConfig is the admin-authored quiz content, read-only to the engine.
type QuizConfig struct {
	Questions []QuizQuestion       `json:"questions" yaml:"questions"`
	Rules     []RecommendationRule `json:"rules" yaml:"rules"`
}

// QuizAnswers maps question id to the selected option's value.
type QuizAnswers map[string]string

// MatchRule evaluates rules in ascending priority (stable on ties, so the
// stored list order breaks them) and returns the tea type of the first
// rule whose conditions are a subset of the collected answer values.
// A rule with no conditions matches vacuously; the rule editor is expected
// to reject such rules at authoring time. Returns ErrNoMatch when nothing
// applies.
func MatchRule(answers QuizAnswers, rules []RecommendationRule) (string, error) {
	values := make(map[string]struct{}, len(answers))
	for _, v := range answers {
		values[v] = struct{}{}
	}

	ordered := make([]RecommendationRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	for _, rule := range ordered {
		if ruleMatches(rule, values) {
			return rule.TeaType, nil
		}
	}
	return "", ErrNoMatch
}

func ruleMatches(rule RecommendationRule, values map[string]struct{}) bool {
	for _, cond := range rule.Conditions {
		if _, ok := values[cond]; !ok {
			return false
		}
	}
	return true
}
