package trivia

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"studyhub-bot/internal/domain"
)

type stubPrimary struct {
	questions []domain.Question
	err       error
	calls     int
}

func (s *stubPrimary) Fetch(_ context.Context, _, _ int) ([]domain.Question, error) {
	s.calls++
	return s.questions, s.err
}

type stubFallback struct {
	raw      string
	err      error
	calls    int
	subject  string
	asked    int
	disabled bool
}

func (s *stubFallback) IsAvailable() bool { return !s.disabled }

func (s *stubFallback) Generate(_ context.Context, subject string, count int) (string, error) {
	s.calls++
	s.subject = subject
	s.asked = count
	return s.raw, s.err
}

func bankQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:    fmt.Sprintf("bank question %d", i),
			Options: []string{"a", "b", "c", "d"},
			Answer:  "A",
		}
	}
	return questions
}

var testCategory = domain.QuizCategory{
	Key:            "core-cs",
	Subjects:       []string{"algorithms"},
	TriviaCategory: 18,
}

const generatedTwo = `Q1. Generated one
A) 1
B) 2
C) 3
D) 4
Answer: A
Q2. Generated two
A) 1
B) 2
C) 3
D) 4
Answer: B
`

func TestProviderPrimaryOnly(t *testing.T) {
	primary := &stubPrimary{questions: bankQuestions(3)}
	fallback := &stubFallback{raw: generatedTwo}
	p := NewProvider(primary, fallback)

	questions, err := p.FetchQuestions(context.Background(), testCategory, 3)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if fallback.calls != 0 {
		t.Fatal("fallback consulted although the bank sufficed")
	}
}

func TestProviderFallbackFillsShortfall(t *testing.T) {
	primary := &stubPrimary{questions: bankQuestions(1)}
	fallback := &stubFallback{raw: generatedTwo}
	p := NewProvider(primary, fallback)

	questions, err := p.FetchQuestions(context.Background(), testCategory, 3)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	if fallback.asked != 2 {
		t.Fatalf("fallback asked for %d questions, want 2", fallback.asked)
	}
	if fallback.subject != "algorithms" {
		t.Fatalf("fallback subject %q", fallback.subject)
	}
}

func TestProviderSkipsBankWithoutCategoryID(t *testing.T) {
	primary := &stubPrimary{questions: bankQuestions(3)}
	fallback := &stubFallback{raw: generatedTwo}
	p := NewProvider(primary, fallback)

	category := testCategory
	category.TriviaCategory = 0
	questions, err := p.FetchQuestions(context.Background(), category, 2)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if primary.calls != 0 {
		t.Fatal("bank consulted for a category without a bank id")
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 generated questions, got %d", len(questions))
	}
}

func TestProviderDegradesToEmpty(t *testing.T) {
	primary := &stubPrimary{err: errors.New("bank down")}
	fallback := &stubFallback{err: errors.New("model down")}
	p := NewProvider(primary, fallback)

	questions, err := p.FetchQuestions(context.Background(), testCategory, 3)
	if err != nil {
		t.Fatalf("source failures must not be errors here, got %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected empty result, got %d", len(questions))
	}
}

func TestProviderTruncatesOverSupply(t *testing.T) {
	primary := &stubPrimary{questions: bankQuestions(5)}
	p := NewProvider(primary, &stubFallback{disabled: true})

	questions, err := p.FetchQuestions(context.Background(), testCategory, 2)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(questions))
	}
}
