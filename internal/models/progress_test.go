package models

import (
	"strings"
	"testing"
)

// ─── Score Merge Tests ───

func TestApplyScore_KeepsMaximum(t *testing.T) {
	tests := []struct {
		name     string
		scores   []int
		expected int
	}{
		{"ascending", []int{10, 50, 80}, 80},
		{"descending", []int{80, 50, 10}, 80},
		{"duplicate submissions", []int{60, 60, 60}, 60},
		{"single", []int{45}, 45},
		{"zero then better", []int{0, 30}, 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProgress()
			for _, s := range tc.scores {
				p.ApplyScore("quick-quiz", s)
			}
			if got := p.ActivityScores["quick-quiz"]; got != tc.expected {
				t.Errorf("Expected stored score %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestApplyScore_OrderIndependent(t *testing.T) {
	a := NewProgress()
	a.ApplyScore("word-cloud", 70)
	a.ApplyScore("word-cloud", 40)

	b := NewProgress()
	b.ApplyScore("word-cloud", 40)
	b.ApplyScore("word-cloud", 70)

	if a.ActivityScores["word-cloud"] != b.ActivityScores["word-cloud"] {
		t.Errorf("Merge is order-dependent: %d vs %d",
			a.ActivityScores["word-cloud"], b.ActivityScores["word-cloud"])
	}
	if a.ActivityScores["word-cloud"] != 70 {
		t.Errorf("Expected 70, got %d", a.ActivityScores["word-cloud"])
	}
}

func TestApplyScore_NilScoreMap(t *testing.T) {
	// Documents deserialized from older JSON can carry a nil map.
	p := &Progress{}
	stored := p.ApplyScore("sort-data", 25)
	if stored != 25 {
		t.Errorf("Expected 25, got %d", stored)
	}
	if p.TotalScore != 25 {
		t.Errorf("Expected total 25, got %d", p.TotalScore)
	}
}

func TestTotalScore_AlwaysSumOfActivityScores(t *testing.T) {
	p := NewProgress()
	p.ApplyScore("quiz-1", 40)
	p.ApplyScore("quiz-2", 30)
	p.ApplyScore("quiz-1", 20) // lower, must not regress
	p.ApplyScore("quiz-3", 10)
	p.ApplyScore("quiz-2", 55) // higher, replaces

	expected := 40 + 55 + 10
	if p.TotalScore != expected {
		t.Errorf("Expected total %d, got %d", expected, p.TotalScore)
	}

	sum := 0
	for _, s := range p.ActivityScores {
		sum += s
	}
	if p.TotalScore != sum {
		t.Errorf("Total %d does not equal score sum %d", p.TotalScore, sum)
	}
}

// ─── Set Insert Tests ───

func TestCompleteLesson_Idempotent(t *testing.T) {
	p := NewProgress()

	if !p.CompleteLesson("what-is-ai") {
		t.Error("First completion should report a change")
	}
	if p.CompleteLesson("what-is-ai") {
		t.Error("Second completion should be a no-op")
	}

	count := 0
	for _, id := range p.CompletedLessons {
		if id == "what-is-ai" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected lesson exactly once, found %d times", count)
	}
}

func TestAwardBadge_Idempotent(t *testing.T) {
	p := NewProgress()

	if !p.AwardBadge("ai-detective") {
		t.Error("First award should report a change")
	}
	if p.AwardBadge("ai-detective") {
		t.Error("Second award should be a no-op")
	}
	if len(p.Badges) != 1 {
		t.Errorf("Expected 1 badge, got %d", len(p.Badges))
	}
}

func TestNewProgress_EmptyDefaults(t *testing.T) {
	p := NewProgress()
	if len(p.CompletedLessons) != 0 || len(p.ActivityScores) != 0 || len(p.Badges) != 0 {
		t.Error("New progress should be empty")
	}
	if p.TotalScore != 0 {
		t.Errorf("Expected total 0, got %d", p.TotalScore)
	}
}

// ─── Session ID Tests ───

func TestNewSessionID_Format(t *testing.T) {
	id := NewSessionID()
	if !strings.HasPrefix(id, "session_") {
		t.Errorf("Expected session_ prefix, got %q", id)
	}
	if len(strings.Split(id, "_")) != 3 {
		t.Errorf("Expected session_<ts>_<suffix>, got %q", id)
	}
}

func TestNewSessionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("Duplicate session id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestIsGradeLevel(t *testing.T) {
	if !IsGradeLevel("Grade 10") {
		t.Error("Grade 10 should be valid")
	}
	if IsGradeLevel("Grade 13") {
		t.Error("Grade 13 should be invalid")
	}
	if IsGradeLevel("") {
		t.Error("Empty grade should be invalid")
	}
}
