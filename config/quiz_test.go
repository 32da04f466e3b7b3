package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyaltykit/core"
)

func validQuiz() core.QuizConfig {
	return core.QuizConfig{
		Questions: []core.QuizQuestion{
			{
				ID:     "taste",
				Prompt: "Какой вкус вам ближе?",
				Options: []core.QuizOption{
					{Value: "earthy", Label: "Землистый"},
					{Value: "floral", Label: "Цветочный"},
				},
			},
			{
				ID:     "strength",
				Prompt: "Насколько крепкий чай вы любите?",
				Options: []core.QuizOption{
					{Value: "strong", Label: "Крепкий"},
					{Value: "light", Label: "Лёгкий"},
				},
			},
		},
		Rules: []core.RecommendationRule{
			{Conditions: []string{"earthy", "strong"}, TeaType: "Шу Пуэр", Priority: 1},
			{Conditions: []string{"floral"}, TeaType: "Улун", Priority: 2},
		},
	}
}

func TestLoadQuizConfig_JSON(t *testing.T) {
	content := `{
		"questions": [
			{"id": "taste", "prompt": "Какой вкус вам ближе?", "options": [
				{"value": "earthy", "label": "Землистый"}
			]}
		],
		"rules": [
			{"conditions": ["earthy"], "tea_type": "Шу Пуэр", "priority": 1}
		]
	}`

	tmpFile, err := os.CreateTemp("", "quiz_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	tmpFile.Close()

	quiz, err := LoadQuizConfig(tmpFile.Name())
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 1)
	require.Len(t, quiz.Rules, 1)
	assert.Equal(t, "Шу Пуэр", quiz.Rules[0].TeaType)
}

func TestLoadQuizConfig_YAML(t *testing.T) {
	content := `
questions:
  - id: taste
    prompt: "Какой вкус вам ближе?"
    options:
      - value: earthy
        label: "Землистый"
rules:
  - conditions: [earthy]
    tea_type: "Шу Пуэр"
    priority: 1
`

	tmpFile, err := os.CreateTemp("", "quiz_test_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	tmpFile.Close()

	quiz, err := LoadQuizConfig(tmpFile.Name())
	require.NoError(t, err)
	assert.Equal(t, "taste", quiz.Questions[0].ID)
	assert.Equal(t, 1, quiz.Rules[0].Priority)
}

func TestLoadQuizConfig_RejectsInvalidContent(t *testing.T) {
	content := `{"rules": [{"conditions": [], "tea_type": "Улун", "priority": 1}]}`

	tmpFile, err := os.CreateTemp("", "quiz_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	tmpFile.Close()

	_, err = LoadQuizConfig(tmpFile.Name())
	assert.Error(t, err)
}

func TestValidateQuizConfig(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*core.QuizConfig)
		expectError bool
	}{
		{
			name:        "valid quiz",
			mutate:      func(*core.QuizConfig) {},
			expectError: false,
		},
		{
			name: "empty question id",
			mutate: func(q *core.QuizConfig) {
				q.Questions[0].ID = " "
			},
			expectError: true,
		},
		{
			name: "duplicate question id",
			mutate: func(q *core.QuizConfig) {
				q.Questions[1].ID = q.Questions[0].ID
			},
			expectError: true,
		},
		{
			name: "question with no options",
			mutate: func(q *core.QuizConfig) {
				q.Questions[0].Options = nil
			},
			expectError: true,
		},
		{
			name: "option with empty value",
			mutate: func(q *core.QuizConfig) {
				q.Questions[0].Options[0].Value = ""
			},
			expectError: true,
		},
		{
			name: "rule with no conditions",
			mutate: func(q *core.QuizConfig) {
				q.Rules[0].Conditions = nil
			},
			expectError: true,
		},
		{
			name: "rule with empty tea type",
			mutate: func(q *core.QuizConfig) {
				q.Rules[0].TeaType = ""
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz := validQuiz()
			tt.mutate(&quiz)
			err := ValidateQuizConfig(quiz)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStaticSource(t *testing.T) {
	quiz := validQuiz()
	src := NewStaticSource(SiteSettings{XPMultiplier: intPtr(3)}, quiz)

	assert.Equal(t, 3, src.Loyalty().XPMultiplier)
	assert.Len(t, src.Quiz().Rules, 2)
}
