package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"loyaltykit/core"
)

// LoadQuizConfig reads admin-authored quiz content from a JSON or YAML
// file and validates it before handing it to the recommendation engine.
func LoadQuizConfig(path string) (core.QuizConfig, error) {
	if err := validateConfigPath(path); err != nil {
		return core.QuizConfig{}, fmt.Errorf("invalid quiz config path: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 - Path validated above
	if err != nil {
		return core.QuizConfig{}, fmt.Errorf("failed to read quiz config %s: %w", path, err)
	}

	var quiz core.QuizConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &quiz)
	default:
		err = json.Unmarshal(data, &quiz)
	}
	if err != nil {
		return core.QuizConfig{}, fmt.Errorf("failed to parse quiz config %s: %w", path, err)
	}

	if err := ValidateQuizConfig(quiz); err != nil {
		return core.QuizConfig{}, fmt.Errorf("invalid quiz config %s: %w", path, err)
	}
	return quiz, nil
}

// ValidateQuizConfig is the authoring-time gate for quiz content. A rule
// with no conditions would match every submission, so it is rejected here
// rather than guarded against during evaluation.
func ValidateQuizConfig(quiz core.QuizConfig) error {
	var errs []string

	seen := make(map[string]struct{}, len(quiz.Questions))
	for i, q := range quiz.Questions {
		if strings.TrimSpace(q.ID) == "" {
			errs = append(errs, fmt.Sprintf("questions[%d] has an empty id", i))
		}
		if _, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Sprintf("questions[%d] duplicates id %q", i, q.ID))
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Sprintf("questions[%d] has no options", i))
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt.Value) == "" {
				errs = append(errs, fmt.Sprintf("questions[%d].options[%d] has an empty value", i, j))
			}
		}
	}

	for i, rule := range quiz.Rules {
		if len(rule.Conditions) == 0 {
			errs = append(errs, fmt.Sprintf("rules[%d] has no conditions and would match everything", i))
		}
		if strings.TrimSpace(rule.TeaType) == "" {
			errs = append(errs, fmt.Sprintf("rules[%d] has an empty tea type", i))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// StaticSource serves fixed loyalty and quiz configuration, resolved once
// at startup. It models the settings-store collaborator for deployments
// where settings change only on restart.
type StaticSource struct {
	loyalty core.LoyaltyConfig
	quiz    core.QuizConfig
}

func NewStaticSource(settings SiteSettings, quiz core.QuizConfig) *StaticSource {
	return &StaticSource{loyalty: settings.ResolveLoyalty(), quiz: quiz}
}

func (s *StaticSource) Loyalty() core.LoyaltyConfig { return s.loyalty }
func (s *StaticSource) Quiz() core.QuizConfig       { return s.quiz }
