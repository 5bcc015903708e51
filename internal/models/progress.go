package models

import "time"

// Progress is the per-learner progress document shared by both storage
// tiers. All merge arithmetic lives on this type; the repository and the
// sync worker store final values and never recompute them.
type Progress struct {
	CompletedLessons []string       `json:"completed_lessons"`
	ActivityScores   map[string]int `json:"activity_scores"`
	Badges           []string       `json:"badges"`
	TotalScore       int            `json:"total_score"`
}

func NewProgress() *Progress {
	return &Progress{
		CompletedLessons: []string{},
		ActivityScores:   map[string]int{},
		Badges:           []string{},
	}
}

// CompleteLesson records a lesson as finished. Returns false when the lesson
// was already complete, so callers can skip persistence.
func (p *Progress) CompleteLesson(lessonID string) bool {
	if containsString(p.CompletedLessons, lessonID) {
		return false
	}
	p.CompletedLessons = append(p.CompletedLessons, lessonID)
	return true
}

// ApplyScore keeps the best score seen for the activity and recomputes the
// total. Replaying the same or a lower score never regresses the stored
// value, which makes the operation safe under duplicate submissions.
func (p *Progress) ApplyScore(activityID string, score int) int {
	if p.ActivityScores == nil {
		p.ActivityScores = map[string]int{}
	}
	if existing, ok := p.ActivityScores[activityID]; !ok || score > existing {
		p.ActivityScores[activityID] = score
	}
	p.recalcTotal()
	return p.ActivityScores[activityID]
}

// AwardBadge returns false when the badge was already earned.
func (p *Progress) AwardBadge(badgeID string) bool {
	if containsString(p.Badges, badgeID) {
		return false
	}
	p.Badges = append(p.Badges, badgeID)
	return true
}

// recalcTotal maintains the invariant total_score == sum(activity_scores).
func (p *Progress) recalcTotal() {
	total := 0
	for _, s := range p.ActivityScores {
		total += s
	}
	p.TotalScore = total
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Reflection is a free-text learner response attached to an activity,
// optionally paired with a generated feedback sentence.
type Reflection struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Feedback  string    `json:"feedback,omitempty"`
}
