package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore keeps attempt state in Redis.
// Answers are stored as: HSETNX attempt:{quiz}:{chapter}:{student}:answers {questionIndex} {optionIndex}
// Results are stored as: SETNX  attempt:{quiz}:{chapter}:{student}:result  {json}
// HSETNX/SETNX make the write-once and finalize-once rules atomic without
// extra locking, even with several gateway instances.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAttemptStore builds a store. ttl bounds how long an in-progress attempt
// survives without activity; results are kept without expiry.
func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) GetAnswers(ctx context.Context, key domain.AttemptKey) (domain.AnswerSet, error) {
	raw, err := s.client.HGetAll(ctx, s.answersKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return parseAnswerHash(raw)
}

func (s *AttemptStore) PutAnswer(ctx context.Context, key domain.AttemptKey, questionIndex, optionIndex int) (bool, error) {
	answersKey := s.answersKey(key)
	stored, err := s.client.HSetNX(ctx, answersKey, strconv.Itoa(questionIndex), optionIndex).Result()
	if err != nil {
		return false, fmt.Errorf("store answer: %w", err)
	}
	if stored && s.ttl > 0 {
		_ = s.client.Expire(ctx, answersKey, s.ttl).Err()
	}
	return stored, nil
}

func (s *AttemptStore) DeleteAnswers(ctx context.Context, key domain.AttemptKey) error {
	if err := s.client.Del(ctx, s.answersKey(key)).Err(); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetResult(ctx context.Context, key domain.AttemptKey) (domain.SubmissionResult, bool, error) {
	raw, err := s.client.Get(ctx, s.resultKey(key)).Result()
	if err == redis.Nil {
		return domain.SubmissionResult{}, false, nil
	}
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("load result: %w", err)
	}
	var result domain.SubmissionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, true, nil
}

func (s *AttemptStore) Finalize(ctx context.Context, key domain.AttemptKey, answers domain.AnswerSet, result domain.SubmissionResult) (domain.SubmissionResult, bool, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("marshal result: %w", err)
	}

	created, err := s.client.SetNX(ctx, s.resultKey(key), payload, 0).Result()
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("store result: %w", err)
	}
	if !created {
		existing, _, err := s.GetResult(ctx, key)
		if err != nil {
			return domain.SubmissionResult{}, false, err
		}
		return existing, false, nil
	}

	// replace the incremental answers with the submitted snapshot, now permanent
	answersKey := s.answersKey(key)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, answersKey)
	for questionIndex, optionIndex := range answers {
		pipe.HSet(ctx, answersKey, strconv.Itoa(questionIndex), optionIndex)
	}
	pipe.Persist(ctx, answersKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("store answer snapshot: %w", err)
	}
	return result, true, nil
}

func (s *AttemptStore) answersKey(key domain.AttemptKey) string {
	return "attempt:" + key.QuizID + ":" + key.ChapterID + ":" + key.StudentID + ":answers"
}

func (s *AttemptStore) resultKey(key domain.AttemptKey) string {
	return "attempt:" + key.QuizID + ":" + key.ChapterID + ":" + key.StudentID + ":result"
}

func parseAnswerHash(raw map[string]string) (domain.AnswerSet, error) {
	answers := make(domain.AnswerSet, len(raw))
	for field, value := range raw {
		questionIndex, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("corrupt answer field %q: %w", field, err)
		}
		optionIndex, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt answer value %q: %w", value, err)
		}
		answers[questionIndex] = optionIndex
	}
	return answers, nil
}
