package app

import (
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Timer is the handle of a scheduled countdown.
type Timer interface {
	Stop() bool
}

// Play is one in-progress attempt driven by a client. The answer map lives only as
// long as the play; it is discarded on finalize or abandonment.
type Play struct {
	id     string
	quizID string
	userID string
	mode   domain.PlayMode
	quiz   domain.Quiz
	now    func() time.Time

	mu          sync.Mutex
	phase       domain.PlayPhase
	current     int
	answers     map[string][]int
	spent       map[string]int
	feedback    *domain.Feedback
	startedAt   time.Time
	presentedAt time.Time
	deadline    time.Time
	timer       Timer
	abandoned   bool

	expired    chan struct{}
	result     *domain.AttemptResult
	expiredErr error
}

func newPlay(id, userID string, quiz domain.Quiz, mode domain.PlayMode, now func() time.Time) *Play {
	started := now()
	phase := domain.PhaseInProgress
	if mode == domain.ModeOneByOne {
		phase = domain.PhasePresenting
	}
	return &Play{
		id:          id,
		quizID:      quiz.ID,
		userID:      userID,
		mode:        mode,
		quiz:        quiz,
		now:         now,
		phase:       phase,
		answers:     make(map[string][]int),
		spent:       make(map[string]int),
		startedAt:   started,
		presentedAt: started,
		expired:     make(chan struct{}),
	}
}

// ID returns the play identifier.
func (p *Play) ID() string { return p.id }

// UserID returns the owner of the play.
func (p *Play) UserID() string { return p.userID }

// Mode returns the protocol chosen at start.
func (p *Play) Mode() domain.PlayMode { return p.mode }

// Expired is closed once a countdown expiry has finalized the play.
func (p *Play) Expired() <-chan struct{} { return p.expired }

// ExpiredOutcome returns the result of the automatic submission. Only meaningful
// after Expired is closed.
func (p *Play) ExpiredOutcome() (domain.AttemptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.result == nil {
		return domain.AttemptResult{}, p.expiredErr
	}
	return *p.result, p.expiredErr
}

// State returns a snapshot of the play.
func (p *Play) State() domain.PlayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Play) stateLocked() domain.PlayState {
	state := domain.PlayState{
		PlayID:     p.id,
		QuizID:     p.quizID,
		Mode:       p.mode,
		Phase:      p.phase,
		Current:    p.current,
		Total:      len(p.quiz.Questions),
		Selections: make(map[string][]int, len(p.answers)),
	}
	if p.current < len(p.quiz.Questions) {
		state.Question = p.quiz.Questions[p.current].View()
	}
	for id, sel := range p.answers {
		state.Selections[id] = cloneInts(sel)
	}
	if p.feedback != nil {
		fb := *p.feedback
		state.Feedback = &fb
	}
	if !p.deadline.IsZero() {
		d := p.deadline
		state.Deadline = &d
	}
	return state
}

func (p *Play) closedLocked() bool {
	if p.abandoned {
		return true
	}
	switch p.phase {
	case domain.PhaseSubmitted, domain.PhaseFinished:
		return true
	}
	return !p.deadline.IsZero() && !p.now().Before(p.deadline)
}

func (p *Play) questionAt(index int) (domain.Question, error) {
	if index < 0 || index >= len(p.quiz.Questions) {
		return domain.Question{}, domain.ErrQuestionIndex
	}
	return p.quiz.Questions[index], nil
}

func (p *Play) selectLocked(index int, selected []int) error {
	if p.closedLocked() {
		return domain.ErrPlayClosed
	}
	q, err := p.questionAt(index)
	if err != nil {
		return err
	}
	if p.mode == domain.ModeOneByOne {
		switch {
		case index < p.current:
			return domain.ErrSelectionLocked
		case index > p.current:
			return domain.ErrNavigationLocked
		case p.phase == domain.PhaseChecked:
			return domain.ErrSelectionLocked
		}
	}
	p.answers[q.ID] = cloneInts(selected)
	p.current = index
	return nil
}

func (p *Play) navigateLocked(index int) error {
	if p.mode == domain.ModeOneByOne {
		return domain.ErrNavigationLocked
	}
	if p.closedLocked() {
		return domain.ErrPlayClosed
	}
	if _, err := p.questionAt(index); err != nil {
		return err
	}
	p.current = index
	return nil
}

func (p *Play) checkLocked() (domain.Feedback, error) {
	if p.mode != domain.ModeOneByOne {
		return domain.Feedback{}, domain.ErrWrongMode
	}
	if p.closedLocked() {
		return domain.Feedback{}, domain.ErrPlayClosed
	}
	if p.phase == domain.PhaseChecked {
		return domain.Feedback{}, domain.ErrSelectionLocked
	}
	q, err := p.questionAt(p.current)
	if err != nil {
		return domain.Feedback{}, err
	}
	selected := p.answers[q.ID]
	if len(selected) == 0 {
		return domain.Feedback{}, domain.ErrEmptySelection
	}
	fb := CheckSelection(q, selected)
	p.spent[q.ID] = int(p.now().Sub(p.presentedAt).Seconds())
	p.feedback = &fb
	p.phase = domain.PhaseChecked
	return fb, nil
}

// submissionsLocked turns the keyed answers into the collection handed to the scorer.
func (p *Play) submissionsLocked() []domain.AnswerSubmission {
	subs := make([]domain.AnswerSubmission, 0, len(p.answers))
	for _, q := range p.quiz.Questions {
		sel, ok := p.answers[q.ID]
		if !ok {
			continue
		}
		sub := domain.AnswerSubmission{QuestionID: q.ID, Selected: cloneInts(sel)}
		if secs, ok := p.spent[q.ID]; ok {
			sub.TimeSpent = &secs
		}
		subs = append(subs, sub)
	}
	return subs
}

func (p *Play) elapsedLocked() int {
	elapsed := int(p.now().Sub(p.startedAt).Seconds())
	if p.quiz.TimeLimit > 0 && p.mode == domain.ModeStandard && elapsed > p.quiz.TimeLimit {
		elapsed = p.quiz.TimeLimit
	}
	return elapsed
}

func (p *Play) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
