package app

import (
	"context"
	"time"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/grading"
)

// AttemptStore abstracts how attempt answers and results are stored
// (in-memory, Redis, Postgres).
type AttemptStore interface {
	// GetAnswers returns the stored answer set for the attempt, empty if none.
	GetAnswers(ctx context.Context, key domain.AttemptKey) (domain.AnswerSet, error)
	// PutAnswer stores one answer unless the question already has one.
	// It reports whether the answer was stored.
	PutAnswer(ctx context.Context, key domain.AttemptKey, questionIndex, optionIndex int) (bool, error)
	// DeleteAnswers removes every stored answer for the attempt.
	DeleteAnswers(ctx context.Context, key domain.AttemptKey) error
	// GetResult returns the persisted submission result, if any.
	GetResult(ctx context.Context, key domain.AttemptKey) (domain.SubmissionResult, bool, error)
	// Finalize persists the submitted answer snapshot and its result exactly
	// once. When the attempt is already finalized it returns the stored result
	// and reports created=false.
	Finalize(ctx context.Context, key domain.AttemptKey, answers domain.AnswerSet, result domain.SubmissionResult) (res domain.SubmissionResult, created bool, err error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuizByChapter(ctx context.Context, chapterID string) (domain.Quiz, error)
}

// AttemptService contains the server-side quiz attempt use cases: the
// write-once answer rule, completeness validation, and idempotent grading.
type AttemptService struct {
	store   AttemptStore
	quizzes QuizRepository
	hub     *submissionHub
	now     func() time.Time
}

func NewAttemptService(store AttemptStore, quizzes QuizRepository) *AttemptService {
	return &AttemptService{
		store:   store,
		quizzes: quizzes,
		hub:     newSubmissionHub(),
		now:     time.Now,
	}
}

// GetQuiz returns the authored quiz for a chapter.
func (s *AttemptService) GetQuiz(ctx context.Context, chapterID string) (domain.Quiz, error) {
	return s.quizzes.GetQuizByChapter(ctx, chapterID)
}

// GetAnswers returns the stored per-question answers for the attempt.
func (s *AttemptService) GetAnswers(ctx context.Context, key domain.AttemptKey) (domain.AnswerSet, error) {
	if _, err := s.lookupQuiz(ctx, key); err != nil {
		return nil, err
	}
	return s.store.GetAnswers(ctx, key)
}

// PutAnswer upserts a single answer. A second write to the same question is a
// no-op, not an error: the client lock cannot be trusted as the sole
// enforcement point. Writes to a finalized attempt are refused.
func (s *AttemptService) PutAnswer(ctx context.Context, key domain.AttemptKey, questionIndex, optionIndex int) (bool, error) {
	quiz, err := s.lookupQuiz(ctx, key)
	if err != nil {
		return false, err
	}
	if questionIndex < 0 || questionIndex >= len(quiz.Questions) {
		return false, domain.ErrQuestionNotFound
	}
	if optionIndex < 0 || optionIndex >= len(quiz.Questions[questionIndex].Options) {
		return false, domain.ErrOptionNotFound
	}

	if _, finalized, err := s.store.GetResult(ctx, key); err != nil {
		return false, err
	} else if finalized {
		return false, domain.ErrAlreadySubmitted
	}

	return s.store.PutAnswer(ctx, key, questionIndex, optionIndex)
}

// Submit validates the answer set against the quiz, grades it, and persists
// the result. Submitting a finalized attempt returns the stored result
// unchanged; grading is never recomputed.
func (s *AttemptService) Submit(ctx context.Context, key domain.AttemptKey, answers domain.AnswerSet) (domain.SubmissionResult, error) {
	quiz, err := s.lookupQuiz(ctx, key)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	if result, finalized, err := s.store.GetResult(ctx, key); err != nil {
		return domain.SubmissionResult{}, err
	} else if finalized {
		return result, nil
	}

	if err := validateAnswerSet(quiz, answers); err != nil {
		return domain.SubmissionResult{}, err
	}

	result, created, err := s.store.Finalize(ctx, key, answers.Clone(), grading.Grade(quiz, answers))
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	if created {
		s.hub.publish(SubmissionEvent{
			QuizID:      key.QuizID,
			ChapterID:   key.ChapterID,
			StudentID:   key.StudentID,
			Result:      result,
			SubmittedAt: s.now(),
		})
	}
	return result, nil
}

// Reset wipes the in-progress answers for the attempt. Finalized attempts are
// read-only and cannot be reset.
func (s *AttemptService) Reset(ctx context.Context, key domain.AttemptKey) error {
	if _, err := s.lookupQuiz(ctx, key); err != nil {
		return err
	}
	if _, finalized, err := s.store.GetResult(ctx, key); err != nil {
		return err
	} else if finalized {
		return domain.ErrAlreadySubmitted
	}
	return s.store.DeleteAnswers(ctx, key)
}

// SubscribeSubmissions returns a channel receiving every first-time
// finalization for a quiz. The caller must invoke cancel to avoid leaks.
func (s *AttemptService) SubscribeSubmissions(quizID string) (<-chan SubmissionEvent, func()) {
	return s.hub.subscribe(quizID)
}

func (s *AttemptService) lookupQuiz(ctx context.Context, key domain.AttemptKey) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuizByChapter(ctx, key.ChapterID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID != key.QuizID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// validateAnswerSet requires exactly one in-range answer per question.
func validateAnswerSet(quiz domain.Quiz, answers domain.AnswerSet) error {
	if len(answers) != len(quiz.Questions) {
		return domain.ErrAnswerSetMismatch
	}
	for _, question := range quiz.Questions {
		selected, ok := answers[question.Index]
		if !ok {
			return domain.ErrAnswerSetMismatch
		}
		if selected < 0 || selected >= len(question.Options) {
			return domain.ErrAnswerSetMismatch
		}
	}
	return nil
}
