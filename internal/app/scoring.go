package app

import (
	"sort"

	"quiz-attempt-service/internal/domain"
)

// SameSelection reports whether selected equals correct as a set. Order and
// duplicates are ignored; indices that are not options can never match.
func SameSelection(correct, selected []int) bool {
	a := normalize(correct)
	b := normalize(selected)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalize returns a sorted copy without duplicates.
func normalize(indices []int) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	sort.Ints(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[n-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}

// CheckSelection reveals whether selected answers question q. It has no side effects
// and shares SameSelection with ScoreAttempt, so both always agree.
func CheckSelection(q domain.Question, selected []int) domain.Feedback {
	correct := q.CorrectSet()
	return domain.Feedback{
		QuestionID:     q.ID,
		Correct:        SameSelection(correct, selected),
		CorrectIndices: cloneInts(correct),
		Explanation:    q.Explanation,
	}
}

// Outcome is the pure scoring result of an attempt, before persistence.
type Outcome struct {
	Score        int
	MaxScore     int
	Percentage   float64
	CorrectCount int
	TotalCount   int
	Passed       bool
	TimeSpent    *int
	Results      []domain.QuestionResult
}

// ScoreAttempt scores answers against every question of the quiz. Questions without
// a submission count as unanswered; submissions for unknown questions are ignored and
// the last submission for a question wins.
func ScoreAttempt(quiz domain.Quiz, answers []domain.AnswerSubmission) Outcome {
	byQuestion := make(map[string]domain.AnswerSubmission, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	out := Outcome{
		TotalCount: len(quiz.Questions),
		Results:    make([]domain.QuestionResult, 0, len(quiz.Questions)),
	}
	spent, sawSpent := 0, false
	for _, q := range quiz.Questions {
		sub := byQuestion[q.ID]
		if sub.TimeSpent != nil {
			spent += *sub.TimeSpent
			sawSpent = true
		}
		points := q.PointValue()
		correct := SameSelection(q.CorrectSet(), sub.Selected)
		if correct {
			out.Score += points
			out.CorrectCount++
		}
		out.MaxScore += points
		out.Results = append(out.Results, domain.QuestionResult{
			QuestionID:     q.ID,
			Prompt:         q.Prompt,
			Options:        q.Options,
			Selected:       cloneInts(sub.Selected),
			CorrectIndices: cloneInts(q.CorrectSet()),
			MultipleChoice: q.MultipleChoice,
			Correct:        correct,
			Explanation:    q.Explanation,
			Points:         points,
		})
	}

	out.Percentage = Percentage(out.Score, out.MaxScore)
	out.Passed = out.Percentage >= quiz.PassingScore
	if sawSpent {
		out.TimeSpent = &spent
	}
	return out
}

// Percentage is score/max*100, or 0 when max is 0.
func Percentage(score, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(score) / float64(max) * 100
}

// Mean is the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func cloneInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
