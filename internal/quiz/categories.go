package quiz

import (
	"time"

	"studyhub-bot/internal/domain"
)

// DefaultCategories returns the built-in quiz category table. Open Trivia DB
// category ids: 18 = Computers, 9 = General Knowledge.
func DefaultCategories() map[string]domain.QuizCategory {
	return map[string]domain.QuizCategory{
		"core-cs": {
			Key:           "core-cs",
			Name:          "Core CS Quiz",
			Description:   "Test your knowledge of core computer science concepts!",
			Duration:      10 * time.Minute,
			QuestionCount: 20,
			Subjects: []string{
				"Data Structures", "Algorithms", "Operating Systems",
				"Database", "Computer Networks",
			},
			TriviaCategory: 18,
		},
		"mental-ability": {
			Key:           "mental-ability",
			Name:          "Mental Ability Quiz",
			Description:   "Challenge your mental agility and problem-solving skills!",
			Duration:      10 * time.Minute,
			QuestionCount: 10,
			Subjects: []string{
				"Logical Reasoning", "Verbal Ability", "Numerical Ability",
				"Analytical Skills",
			},
			TriviaCategory: 9,
		},
	}
}
