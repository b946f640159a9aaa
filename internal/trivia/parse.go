package trivia

import (
	"regexp"
	"strings"

	"studyhub-bot/internal/domain"
)

var (
	questionLine = regexp.MustCompile(`^Q\d+[.)]`)
	optionLine   = regexp.MustCompile(`^[A-D]\)`)
)

// ParseQuestions extracts question records from the line-oriented format the
// generative source is prompted for. Records missing any part (text, exactly
// four options, a valid answer letter) are discarded rather than repaired.
func ParseQuestions(raw string) []domain.Question {
	var questions []domain.Question
	var current *domain.Question

	flush := func() {
		if current != nil && isComplete(*current) {
			questions = append(questions, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case questionLine.MatchString(line):
			flush()
			text := strings.TrimSpace(line[strings.IndexAny(line, ".)")+1:])
			current = &domain.Question{Text: text}
		case optionLine.MatchString(line):
			if current != nil {
				current.Options = append(current.Options, strings.TrimSpace(line[2:]))
			}
		case strings.HasPrefix(line, "Answer:"):
			if current != nil {
				current.Answer = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "Answer:")))
			}
		case strings.HasPrefix(line, "Explanation:"):
			if current != nil {
				current.Explanation = strings.TrimSpace(strings.TrimPrefix(line, "Explanation:"))
			}
		}
	}
	flush()
	return questions
}

func isComplete(q domain.Question) bool {
	if q.Text == "" || len(q.Options) != 4 {
		return false
	}
	for _, letter := range domain.OptionLetters {
		if q.Answer == letter {
			return true
		}
	}
	return false
}
