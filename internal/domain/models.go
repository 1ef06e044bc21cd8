package domain

import "time"

// Question is an immutable snapshot of a quiz question. Options are addressed by index.
type Question struct {
	ID             string   `json:"id"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	CorrectIndices []int    `json:"correctIndices"`
	MultipleChoice bool     `json:"isMultipleChoice"`
	Points         int      `json:"points"` // defaults to 1 if zero
	Explanation    string   `json:"explanation,omitempty"`
}

// PointValue returns the points awarded for a correct answer.
func (q Question) PointValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// CorrectSet returns the authoritative correct indices. Single-choice questions
// only honor the first stored index.
func (q Question) CorrectSet() []int {
	if !q.MultipleChoice && len(q.CorrectIndices) > 1 {
		return q.CorrectIndices[:1]
	}
	return q.CorrectIndices
}

// View strips answer data so the question can be shown during play.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:             q.ID,
		Prompt:         q.Prompt,
		Options:        q.Options,
		MultipleChoice: q.MultipleChoice,
		Points:         q.PointValue(),
	}
}

// QuestionView is the player-facing part of a question.
type QuestionView struct {
	ID             string   `json:"id"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	MultipleChoice bool     `json:"isMultipleChoice"`
	Points         int      `json:"points"`
}

// Quiz is a collection of questions.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Questions    []Question `json:"questions"`
	PassingScore float64    `json:"passingScore"` // percentage threshold
	TimeLimit    int        `json:"timeLimit"`    // seconds, 0 disables the countdown
}

// AnswerSubmission is the client's selection for one question.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	Selected   []int  `json:"selected"`
	TimeSpent  *int   `json:"timeSpent,omitempty"` // seconds
}

// QuestionResult is the scored outcome of one question within an attempt.
type QuestionResult struct {
	QuestionID     string   `json:"questionId"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	Selected       []int    `json:"selected"`
	CorrectIndices []int    `json:"correctIndices"`
	MultipleChoice bool     `json:"isMultipleChoice"`
	Correct        bool     `json:"isCorrect"`
	Explanation    string   `json:"explanation,omitempty"`
	Points         int      `json:"points"`
}

// Score is the persisted record of one finalized attempt. Never mutated after creation.
type Score struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	QuizID       string           `json:"quizId"`
	Score        int              `json:"score"`
	MaxScore     int              `json:"maxScore"`
	Percentage   float64          `json:"percentage"`
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	TimeSpent    *int             `json:"timeSpent,omitempty"`
	Passed       bool             `json:"passed"`
	Results      []QuestionResult `json:"results"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// AttemptResult is returned to the client after a finalized attempt.
type AttemptResult struct {
	ScoreID      string           `json:"scoreId"`
	Score        int              `json:"score"`
	MaxScore     int              `json:"maxScore"`
	Percentage   float64          `json:"percentage"`
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	Passed       bool             `json:"passed"`
	Results      []QuestionResult `json:"results"`
}

// Feedback is the immediate correctness reveal for a single question.
type Feedback struct {
	QuestionID     string `json:"questionId"`
	Correct        bool   `json:"isCorrect"`
	CorrectIndices []int  `json:"correctIndices"`
	Explanation    string `json:"explanation,omitempty"`
}

// QuizStats are the derived aggregate fields of a quiz.
type QuizStats struct {
	QuizID       string  `json:"quizId"`
	PlayCount    int     `json:"playCount"`
	AverageScore float64 `json:"averageScore"`
}

// UserStats are the lifetime totals of a user.
type UserStats struct {
	UserID       string `json:"userId"`
	TotalScore   int64  `json:"totalScore"`
	AttemptCount int    `json:"attemptCount"`
}

// PlayMode selects the interaction protocol of an attempt.
type PlayMode string

const (
	ModeStandard PlayMode = "standard"
	ModeOneByOne PlayMode = "one_by_one"
)

// Valid reports whether the mode is known.
func (m PlayMode) Valid() bool {
	return m == ModeStandard || m == ModeOneByOne
}

// PlayPhase is the state of a play session.
type PlayPhase string

const (
	PhaseInProgress PlayPhase = "in_progress" // standard
	PhaseSubmitted  PlayPhase = "submitted"   // standard
	PhasePresenting PlayPhase = "presenting"  // one-by-one
	PhaseChecked    PlayPhase = "checked"     // one-by-one
	PhaseFinished   PlayPhase = "finished"    // one-by-one
)

// PlayState is a snapshot of a play session safe to send to the player.
type PlayState struct {
	PlayID     string           `json:"playId"`
	QuizID     string           `json:"quizId"`
	Mode       PlayMode         `json:"mode"`
	Phase      PlayPhase        `json:"phase"`
	Current    int              `json:"current"`
	Total      int              `json:"total"`
	Question   QuestionView     `json:"question"`
	Selections map[string][]int `json:"selections"`
	Feedback   *Feedback        `json:"feedback,omitempty"`
	Deadline   *time.Time       `json:"deadline,omitempty"`
}
