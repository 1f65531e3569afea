package client

import (
	"context"
	"fmt"
	"sync"

	"quiz-attempt-service/internal/domain"
)

// WriteOutcome reports which durability path recorded an answer.
type WriteOutcome int

const (
	// WriteFailed means neither path stored the answer; the question stays
	// answerable so the user can retry.
	WriteFailed WriteOutcome = iota
	// WroteRemote means the remote service stored the answer.
	WroteRemote
	// WroteLocalFallback means the remote failed and the local cache took the
	// answer instead.
	WroteLocalFallback
	// AlreadyAnswered means the question was locked; nothing was written.
	AlreadyAnswered
)

// Coordinator makes every answer write durable exactly once: remote first,
// local fallback second, and an explicit failure when both paths refuse. It
// also reconciles the two paths on load, with the remote store authoritative.
type Coordinator struct {
	remote RemoteAPI
	cache  FallbackCache
	quiz   domain.Quiz
	locks  *lockSet

	mu      sync.Mutex
	answers domain.AnswerSet
	result  *domain.SubmissionResult

	pending sync.WaitGroup
}

func NewCoordinator(remote RemoteAPI, cache FallbackCache, quiz domain.Quiz) *Coordinator {
	return &Coordinator{
		remote:  remote,
		cache:   cache,
		quiz:    quiz,
		locks:   newLockSet(len(quiz.Questions)),
		answers: make(domain.AnswerSet),
	}
}

// Load recovers an in-progress attempt. A non-empty remote answer set is
// authoritative: the local entry is rewritten to match it, so stale
// conflicting local data is discarded. Only when the remote store is empty or
// unreachable does the local fallback entry count. Recovered questions are
// locked immediately.
func (c *Coordinator) Load(ctx context.Context) (domain.AnswerSet, error) {
	remoteSet, remoteErr := c.remote.GetAnswers(ctx, c.quiz.ID, c.quiz.ChapterID)
	if remoteErr == nil && len(remoteSet) > 0 {
		_ = c.cache.Store(c.quiz.ChapterID, remoteSet)
		c.adopt(remoteSet)
		return remoteSet.Clone(), nil
	}

	localSet, localErr := c.cache.Load(c.quiz.ChapterID)
	if localErr != nil {
		if remoteErr != nil {
			return nil, fmt.Errorf("load answers: remote: %v, local: %w", remoteErr, localErr)
		}
		return nil, localErr
	}
	if len(localSet) > 0 {
		c.adopt(localSet)
		return localSet.Clone(), nil
	}
	// both empty: fresh attempt
	return domain.AnswerSet{}, nil
}

// SelectOption records an answer for a question. Calls on a locked question
// are no-ops. The question locks only once the answer is durable on one of
// the two paths; a write that lands nowhere leaves it answerable.
func (c *Coordinator) SelectOption(ctx context.Context, questionIndex, optionIndex int) (WriteOutcome, error) {
	if questionIndex < 0 || questionIndex >= len(c.quiz.Questions) {
		return WriteFailed, domain.ErrQuestionNotFound
	}
	if optionIndex < 0 || optionIndex >= len(c.quiz.Questions[questionIndex].Options) {
		return WriteFailed, domain.ErrOptionNotFound
	}
	if !c.locks.tryAcquire(questionIndex) {
		return AlreadyAnswered, nil
	}

	c.pending.Add(1)
	defer c.pending.Done()

	if err := c.remote.PutAnswer(ctx, c.quiz.ID, c.quiz.ChapterID, questionIndex, optionIndex); err == nil {
		c.record(questionIndex, optionIndex)
		c.locks.commit(questionIndex)
		return WroteRemote, nil
	}

	// remote failed: take the answer into the local fallback entry
	c.mu.Lock()
	snapshot := c.answers.Clone()
	snapshot[questionIndex] = optionIndex
	cacheErr := c.cache.Store(c.quiz.ChapterID, snapshot)
	if cacheErr == nil {
		c.answers[questionIndex] = optionIndex
	}
	c.mu.Unlock()

	if cacheErr != nil {
		// neither path took the write; the answer is not committed
		c.locks.release(questionIndex)
		return WriteFailed, fmt.Errorf("answer not saved: %w", cacheErr)
	}
	c.locks.commit(questionIndex)
	return WroteLocalFallback, nil
}

// Submit grades the attempt. It waits for every SelectOption call that has
// already started before building the snapshot; callers driving selects from
// other goroutines must make sure each call has begun before submitting, or a
// still-unscheduled write is simply absent from the set. It refuses incomplete
// sets before any network call and clears the fallback entry only once the
// server accepted the submission. Resubmitting returns the result already
// computed.
func (c *Coordinator) Submit(ctx context.Context) (domain.SubmissionResult, error) {
	c.pending.Wait()

	c.mu.Lock()
	if c.result != nil {
		result := *c.result
		c.mu.Unlock()
		return result, nil
	}
	missing := len(c.quiz.Questions) - len(c.answers)
	snapshot := c.answers.Clone()
	c.mu.Unlock()

	if missing > 0 {
		return domain.SubmissionResult{}, &domain.IncompleteAnswersError{Missing: missing}
	}

	result, err := c.remote.Submit(ctx, c.quiz.ID, c.quiz.ChapterID, snapshot)
	if err != nil {
		// local state survives so a retry loses nothing
		return domain.SubmissionResult{}, err
	}

	_ = c.cache.Clear(c.quiz.ChapterID)
	c.mu.Lock()
	c.result = &result
	c.mu.Unlock()
	return result, nil
}

// Reset wipes the attempt on both persistence paths and unlocks every
// question. Refused once the attempt is submitted.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.pending.Wait()

	c.mu.Lock()
	submitted := c.result != nil
	c.mu.Unlock()
	if submitted {
		return domain.ErrAlreadySubmitted
	}

	if err := c.remote.Reset(ctx, c.quiz.ID, c.quiz.ChapterID); err != nil {
		return fmt.Errorf("reset remote answers: %w", err)
	}
	if err := c.cache.Clear(c.quiz.ChapterID); err != nil {
		return err
	}

	c.mu.Lock()
	c.answers = make(domain.AnswerSet)
	c.mu.Unlock()
	c.locks.reset()
	return nil
}

// QuestionState reports the lock state for one question.
func (c *Coordinator) QuestionState(questionIndex int) QuestionState {
	return c.locks.state(questionIndex)
}

// Answers returns a copy of the in-memory answer mirror.
func (c *Coordinator) Answers() domain.AnswerSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Clone()
}

func (c *Coordinator) record(questionIndex, optionIndex int) {
	c.mu.Lock()
	c.answers[questionIndex] = optionIndex
	c.mu.Unlock()
}

func (c *Coordinator) adopt(answers domain.AnswerSet) {
	c.mu.Lock()
	c.answers = answers.Clone()
	c.mu.Unlock()
	for questionIndex := range answers {
		if questionIndex >= 0 && questionIndex < len(c.quiz.Questions) {
			c.locks.lockLoaded(questionIndex)
		}
	}
}
