package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
)

// Handler exposes the attempt use cases over REST. Every attempt route takes
// the student identity from the bearer token, so one student can never touch
// another's attempt.
type Handler struct {
	service *app.AttemptService
}

func NewHandler(service *app.AttemptService) *Handler {
	return &Handler{service: service}
}

// NewRouter wires the REST surface, CORS for the browser portal, and the
// websocket submission feed behind bearer auth.
func NewRouter(service *app.AttemptService, authService *auth.Service) http.Handler {
	h := NewHandler(service)
	feed := NewFeedHandler(service)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(authService))
		r.Get("/quizzes/by-chapter/{chapterID}", h.fetchQuiz)
		r.Route("/quiz-attempts/{quizID}/{chapterID}", func(r chi.Router) {
			r.Get("/answers", h.getAnswers)
			r.Post("/answer", h.putAnswer)
			r.Post("/submit", h.submit)
			r.Delete("/", h.reset)
		})
		r.Get("/ws/submissions", feed.ServeWS)
	})
	return r
}

// wireQuestion is the student-facing question shape: no answer key.
type wireQuestion struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type wireQuiz struct {
	QuizID    string         `json:"quizId"`
	ChapterID string         `json:"chapterId"`
	Questions []wireQuestion `json:"questions"`
}

type quizResponse struct {
	Exists bool      `json:"exists"`
	Quiz   *wireQuiz `json:"quiz,omitempty"`
}

type answersResponse struct {
	Success bool             `json:"success"`
	Answers domain.AnswerSet `json:"answers"`
}

type answerRequest struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type submitRequest struct {
	Answers domain.AnswerSet `json:"answers"`
}

type submitResponse struct {
	Success bool                    `json:"success"`
	Result  domain.SubmissionResult `json:"result"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) fetchQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "chapterID"))
	if errors.Is(err, domain.ErrQuizNotFound) {
		writeJSON(w, http.StatusOK, quizResponse{Exists: false})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Exists: true, Quiz: sanitizeQuiz(quiz)})
}

func (h *Handler) getAnswers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.service.GetAnswers(r.Context(), attemptKey(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if answers == nil {
		answers = domain.AnswerSet{}
	}
	writeJSON(w, http.StatusOK, answersResponse{Success: true, Answers: answers})
}

func (h *Handler) putAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	// a repeated write to the same question is a no-op, still a success
	if _, err := h.service.PutAnswer(r.Context(), attemptKey(r), req.QuestionIndex, req.OptionIndex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	result, err := h.service.Submit(r.Context(), attemptKey(r), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Success: true, Result: result})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context(), attemptKey(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func attemptKey(r *http.Request) domain.AttemptKey {
	return domain.AttemptKey{
		QuizID:    chi.URLParam(r, "quizID"),
		ChapterID: chi.URLParam(r, "chapterID"),
		StudentID: auth.SubjectFromContext(r.Context()),
	}
}

func sanitizeQuiz(quiz domain.Quiz) *wireQuiz {
	out := &wireQuiz{
		QuizID:    quiz.ID,
		ChapterID: quiz.ChapterID,
		Questions: make([]wireQuestion, len(quiz.Questions)),
	}
	for i, question := range quiz.Questions {
		out.Questions[i] = wireQuestion{
			Index:   question.Index,
			Text:    question.Text,
			Options: question.Options,
		}
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	var incomplete *domain.IncompleteAnswersError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadySubmitted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAnswerSetMismatch), errors.As(err, &incomplete):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
