package trivia

import (
	"context"
	"log"
	"math/rand"
	"time"

	"studyhub-bot/internal/domain"
)

// PrimarySource is the question-bank side of the provider (Open Trivia DB).
type PrimarySource interface {
	Fetch(ctx context.Context, categoryID, count int) ([]domain.Question, error)
}

// FallbackSource produces free-text questions when the primary runs short.
type FallbackSource interface {
	IsAvailable() bool
	Generate(ctx context.Context, subject string, count int) (string, error)
}

// Provider blends the question bank with the generative fallback. Source
// failures degrade to an empty contribution; the caller decides whether an
// empty final result is fatal.
type Provider struct {
	primary  PrimarySource
	fallback FallbackSource
	rnd      *rand.Rand
}

func NewProvider(primary PrimarySource, fallback FallbackSource) *Provider {
	return &Provider{
		primary:  primary,
		fallback: fallback,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions returns up to count shuffled questions for a category,
// possibly fewer, possibly none.
func (p *Provider) FetchQuestions(ctx context.Context, category domain.QuizCategory, count int) ([]domain.Question, error) {
	var questions []domain.Question

	if category.TriviaCategory != 0 {
		fetched, err := p.primary.Fetch(ctx, category.TriviaCategory, count)
		if err != nil {
			log.Printf("[trivia] question bank fetch failed for %s: %v", category.Key, err)
		} else {
			questions = fetched
		}
	}

	if len(questions) < count && p.fallback != nil && p.fallback.IsAvailable() {
		subject := category.Key
		if len(category.Subjects) > 0 {
			subject = category.Subjects[p.rnd.Intn(len(category.Subjects))]
		}
		raw, err := p.fallback.Generate(ctx, subject, count-len(questions))
		if err != nil {
			log.Printf("[trivia] generative fallback failed for %s: %v", category.Key, err)
		} else {
			questions = append(questions, ParseQuestions(raw)...)
		}
	}

	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	p.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > count {
		shuffled = shuffled[:count]
	}
	return shuffled, nil
}
