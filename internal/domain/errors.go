package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates no quiz has been authored for the chapter.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates authored content violates the quiz invariants.
	ErrInvalidQuiz = errors.New("invalid quiz content")
	// ErrQuestionNotFound indicates a submitted question index is out of range.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrAlreadySubmitted indicates the attempt is finalized and read-only.
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	// ErrAnswerSetMismatch indicates a submitted answer set does not line up
	// with the quiz's questions.
	ErrAnswerSetMismatch = errors.New("answer set does not match quiz questions")
)

// IncompleteAnswersError rejects a submission before any network call when
// questions are still unanswered. Missing carries the count for the
// user-visible message.
type IncompleteAnswersError struct {
	Missing int
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("submission incomplete: %d question(s) unanswered", e.Missing)
}
