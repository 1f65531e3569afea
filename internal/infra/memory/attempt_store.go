package memory

import (
	"context"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
type AttemptStore struct {
	mu      sync.RWMutex
	answers map[domain.AttemptKey]domain.AnswerSet
	results map[domain.AttemptKey]domain.SubmissionResult
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		answers: make(map[domain.AttemptKey]domain.AnswerSet),
		results: make(map[domain.AttemptKey]domain.SubmissionResult),
	}
}

func (s *AttemptStore) GetAnswers(_ context.Context, key domain.AttemptKey) (domain.AnswerSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers[key].Clone(), nil
}

func (s *AttemptStore) PutAnswer(_ context.Context, key domain.AttemptKey, questionIndex, optionIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.answers[key]
	if !ok {
		set = make(domain.AnswerSet)
		s.answers[key] = set
	}
	if _, exists := set[questionIndex]; exists {
		return false, nil
	}
	set[questionIndex] = optionIndex
	return true, nil
}

func (s *AttemptStore) DeleteAnswers(_ context.Context, key domain.AttemptKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, key)
	return nil
}

func (s *AttemptStore) GetResult(_ context.Context, key domain.AttemptKey) (domain.SubmissionResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[key]
	return result, ok, nil
}

func (s *AttemptStore) Finalize(_ context.Context, key domain.AttemptKey, answers domain.AnswerSet, result domain.SubmissionResult) (domain.SubmissionResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.results[key]; ok {
		return existing, false, nil
	}
	// the submitted snapshot becomes the stored answer set for the attempt
	s.answers[key] = answers.Clone()
	s.results[key] = result
	return result, true, nil
}
