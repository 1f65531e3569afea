package client

import "sync"

// QuestionState is the per-question answer state. There is no transition back
// from AnsweredLocked: an answer cannot be revised once recorded.
type QuestionState int

const (
	Unanswered QuestionState = iota
	AnsweredLocked
)

// lockSet gates writes in front of the coordinator. A question also carries an
// in-flight mark while its write is on the wire, so duplicate UI events can
// never start a second write for the same question.
type lockSet struct {
	mu       sync.Mutex
	states   []QuestionState
	inFlight []bool
}

func newLockSet(questions int) *lockSet {
	return &lockSet{
		states:   make([]QuestionState, questions),
		inFlight: make([]bool, questions),
	}
}

// tryAcquire reports whether the question may start a write and, if so, marks
// it in flight. Locked or in-flight questions refuse silently.
func (l *lockSet) tryAcquire(questionIndex int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[questionIndex] != Unanswered || l.inFlight[questionIndex] {
		return false
	}
	l.inFlight[questionIndex] = true
	return true
}

// commit transitions the question to AnsweredLocked after a durable write.
func (l *lockSet) commit(questionIndex int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight[questionIndex] = false
	l.states[questionIndex] = AnsweredLocked
}

// release returns the question to Unanswered after a failed write, so the
// user can retry.
func (l *lockSet) release(questionIndex int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight[questionIndex] = false
	l.states[questionIndex] = Unanswered
}

// lockLoaded marks a question answered from persisted state on load.
func (l *lockSet) lockLoaded(questionIndex int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states[questionIndex] = AnsweredLocked
}

func (l *lockSet) state(questionIndex int) QuestionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[questionIndex]
}

// reset forcibly returns every question to Unanswered.
func (l *lockSet) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.states {
		l.states[i] = Unanswered
		l.inFlight[i] = false
	}
}
