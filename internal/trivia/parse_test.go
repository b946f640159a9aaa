package trivia

import "testing"

func TestParseQuestions(t *testing.T) {
	raw := `Q1. What does CPU stand for?
A) Central Processing Unit
B) Computer Personal Unit
C) Central Process Utility
D) Core Processing Unit
Answer: A
Explanation: The CPU executes instructions.

Q2) Which structure is LIFO?
A) Queue
B) Stack
C) Heap
D) Graph
Answer: b
`
	questions := ParseQuestions(raw)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Text != "What does CPU stand for?" {
		t.Fatalf("question text: %q", questions[0].Text)
	}
	if questions[0].Answer != "A" || questions[0].Explanation != "The CPU executes instructions." {
		t.Fatalf("question 1 parsed wrong: %+v", questions[0])
	}
	if questions[1].Answer != "B" {
		t.Fatalf("answer letter not normalized: %q", questions[1].Answer)
	}
	if len(questions[1].Options) != 4 || questions[1].Options[1] != "Stack" {
		t.Fatalf("options parsed wrong: %v", questions[1].Options)
	}
}

func TestParseQuestionsDiscardsIncomplete(t *testing.T) {
	raw := `Q1. Missing options
Answer: A

Q2. Missing answer
A) one
B) two
C) three
D) four

Q3. Answer out of range
A) one
B) two
C) three
D) four
Answer: E

Q4. Complete
A) one
B) two
C) three
D) four
Answer: D
`
	questions := ParseQuestions(raw)
	if len(questions) != 1 || questions[0].Answer != "D" {
		t.Fatalf("expected only the complete question, got %+v", questions)
	}
}

func TestParseQuestionsIgnoresStrayLines(t *testing.T) {
	raw := `Here are your questions!
A) orphan option before any question
Answer: A

Q1. Real question
A) one
B) two
C) three
D) four
Answer: C
`
	questions := ParseQuestions(raw)
	if len(questions) != 1 || questions[0].Answer != "C" {
		t.Fatalf("stray lines broke parsing: %+v", questions)
	}
}
