package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore persists attempt answers and results in Postgres. The
// write-once rule rides on the primary key plus ON CONFLICT DO NOTHING, so it
// holds across gateway instances without advisory locks.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) GetAnswers(ctx context.Context, key domain.AttemptKey) (domain.AnswerSet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_index, option_index FROM attempt_answers
		 WHERE quiz_id=$1 AND chapter_id=$2 AND student_id=$3`,
		key.QuizID, key.ChapterID, key.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	answers := make(domain.AnswerSet)
	for rows.Next() {
		var questionIndex, optionIndex int
		if err := rows.Scan(&questionIndex, &optionIndex); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers[questionIndex] = optionIndex
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return answers, nil
}

func (s *AttemptStore) PutAnswer(ctx context.Context, key domain.AttemptKey, questionIndex, optionIndex int) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attempt_answers (quiz_id, chapter_id, student_id, question_index, option_index)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT DO NOTHING`,
		key.QuizID, key.ChapterID, key.StudentID, questionIndex, optionIndex)
	if err != nil {
		return false, fmt.Errorf("store answer: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *AttemptStore) DeleteAnswers(ctx context.Context, key domain.AttemptKey) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM attempt_answers WHERE quiz_id=$1 AND chapter_id=$2 AND student_id=$3`,
		key.QuizID, key.ChapterID, key.StudentID)
	if err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetResult(ctx context.Context, key domain.AttemptKey) (domain.SubmissionResult, bool, error) {
	var result domain.SubmissionResult
	err := s.pool.QueryRow(ctx,
		`SELECT score, total_questions, percentage FROM attempt_results
		 WHERE quiz_id=$1 AND chapter_id=$2 AND student_id=$3`,
		key.QuizID, key.ChapterID, key.StudentID).
		Scan(&result.Score, &result.TotalQuestions, &result.Percentage)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SubmissionResult{}, false, nil
	}
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("load result: %w", err)
	}
	return result, true, nil
}

func (s *AttemptStore) Finalize(ctx context.Context, key domain.AttemptKey, answers domain.AnswerSet, result domain.SubmissionResult) (domain.SubmissionResult, bool, error) {
	snapshot, err := json.Marshal(answers)
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO attempt_results (quiz_id, chapter_id, student_id, score, total_questions, percentage, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (quiz_id, chapter_id, student_id) DO NOTHING`,
		key.QuizID, key.ChapterID, key.StudentID,
		result.Score, result.TotalQuestions, result.Percentage, snapshot)
	if err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("store result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// lost the race (or resubmission): the first result stands
		var existing domain.SubmissionResult
		err := tx.QueryRow(ctx,
			`SELECT score, total_questions, percentage FROM attempt_results
			 WHERE quiz_id=$1 AND chapter_id=$2 AND student_id=$3`,
			key.QuizID, key.ChapterID, key.StudentID).
			Scan(&existing.Score, &existing.TotalQuestions, &existing.Percentage)
		if err != nil {
			return domain.SubmissionResult{}, false, fmt.Errorf("load existing result: %w", err)
		}
		return existing, false, nil
	}

	// the submitted snapshot replaces the incremental rows
	if _, err := tx.Exec(ctx,
		`DELETE FROM attempt_answers WHERE quiz_id=$1 AND chapter_id=$2 AND student_id=$3`,
		key.QuizID, key.ChapterID, key.StudentID); err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("clear answers: %w", err)
	}
	for questionIndex, optionIndex := range answers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO attempt_answers (quiz_id, chapter_id, student_id, question_index, option_index)
			 VALUES ($1, $2, $3, $4, $5)`,
			key.QuizID, key.ChapterID, key.StudentID, questionIndex, optionIndex); err != nil {
			return domain.SubmissionResult{}, false, fmt.Errorf("store answer snapshot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.SubmissionResult{}, false, fmt.Errorf("commit finalize: %w", err)
	}
	return result, true, nil
}
