package grading

import "quiz-attempt-service/internal/domain"

// Grade scores a complete answer set against the quiz's answer key.
// It is a pure function: no I/O, deterministic for identical inputs, which is
// what makes stored results safe to hand back on resubmission.
func Grade(quiz domain.Quiz, answers domain.AnswerSet) domain.SubmissionResult {
	total := len(quiz.Questions)
	score := 0
	for _, question := range quiz.Questions {
		if selected, ok := answers[question.Index]; ok && selected == question.CorrectOptionIndex {
			score++
		}
	}

	percentage := 0.0
	if total > 0 {
		// float division so partial percentages round meaningfully downstream
		percentage = 100 * float64(score) / float64(total)
	}

	return domain.SubmissionResult{
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage,
	}
}
