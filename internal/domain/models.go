package domain

// Question is one multiple-choice entry in a quiz. Options are positional;
// CorrectOptionIndex points into Options.
type Question struct {
	Index              int      `json:"index"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
}

// Quiz is the authored question set for one chapter. It is immutable while a
// student is taking it; authoring happens elsewhere.
type Quiz struct {
	ID        string     `json:"quizId"`
	ChapterID string     `json:"chapterId"`
	Questions []Question `json:"questions"`
}

// Validate checks the authoring invariants: every question has at least two
// options and a correct index that points into them.
func (q Quiz) Validate() error {
	for _, question := range q.Questions {
		if len(question.Options) < 2 {
			return ErrInvalidQuiz
		}
		if question.CorrectOptionIndex < 0 || question.CorrectOptionIndex >= len(question.Options) {
			return ErrInvalidQuiz
		}
	}
	return nil
}

// AnswerSet maps question index to the selected option index.
type AnswerSet map[int]int

// Clone returns an independent copy of the set.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// SubmissionResult is the graded outcome of one attempt. Created exactly once
// per attempt and never mutated afterward.
type SubmissionResult struct {
	Score          int     `json:"score"`
	TotalQuestions int     `json:"totalQuestions"`
	Percentage     float64 `json:"percentage"`
}

// AttemptKey identifies the logical attempt: one student's answers to one
// quiz instance for one chapter.
type AttemptKey struct {
	QuizID    string
	ChapterID string
	StudentID string
}
