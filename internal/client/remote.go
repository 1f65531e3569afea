package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"quiz-attempt-service/internal/domain"
)

// RemoteAPI is the coordinator's view of the remote persistence service.
type RemoteAPI interface {
	FetchQuiz(ctx context.Context, chapterID string) (domain.Quiz, bool, error)
	GetAnswers(ctx context.Context, quizID, chapterID string) (domain.AnswerSet, error)
	PutAnswer(ctx context.Context, quizID, chapterID string, questionIndex, optionIndex int) error
	Submit(ctx context.Context, quizID, chapterID string, answers domain.AnswerSet) (domain.SubmissionResult, error)
	Reset(ctx context.Context, quizID, chapterID string) error
}

// RestClient talks to the service's REST surface. The timeout bounds every
// call; an expired call counts as remote failure and triggers the fallback
// path in the coordinator.
type RestClient struct {
	http *resty.Client
}

func NewRestClient(baseURL, bearerToken string, timeout time.Duration) *RestClient {
	return &RestClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetAuthToken(bearerToken).
			SetTimeout(timeout),
	}
}

type quizEnvelope struct {
	Exists bool         `json:"exists"`
	Quiz   *domain.Quiz `json:"quiz"`
}

type answersEnvelope struct {
	Success bool             `json:"success"`
	Answers domain.AnswerSet `json:"answers"`
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type submitEnvelope struct {
	Success bool                    `json:"success"`
	Result  domain.SubmissionResult `json:"result"`
	Error   string                  `json:"error"`
}

func (c *RestClient) FetchQuiz(ctx context.Context, chapterID string) (domain.Quiz, bool, error) {
	var envelope quizEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetPathParam("chapterID", chapterID).
		Get("/quizzes/by-chapter/{chapterID}")
	if err != nil {
		return domain.Quiz{}, false, fmt.Errorf("fetch quiz: %w", err)
	}
	if resp.IsError() {
		return domain.Quiz{}, false, fmt.Errorf("fetch quiz: %s", resp.Status())
	}
	if !envelope.Exists || envelope.Quiz == nil {
		return domain.Quiz{}, false, nil
	}
	return *envelope.Quiz, true, nil
}

func (c *RestClient) GetAnswers(ctx context.Context, quizID, chapterID string) (domain.AnswerSet, error) {
	var envelope answersEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetPathParams(map[string]string{"quizID": quizID, "chapterID": chapterID}).
		Get("/quiz-attempts/{quizID}/{chapterID}/answers")
	if err != nil {
		return nil, fmt.Errorf("fetch answers: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch answers: %s", resp.Status())
	}
	if envelope.Answers == nil {
		return domain.AnswerSet{}, nil
	}
	return envelope.Answers, nil
}

func (c *RestClient) PutAnswer(ctx context.Context, quizID, chapterID string, questionIndex, optionIndex int) error {
	var envelope successEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"questionIndex": questionIndex, "optionIndex": optionIndex}).
		SetResult(&envelope).
		SetError(&envelope).
		SetPathParams(map[string]string{"quizID": quizID, "chapterID": chapterID}).
		Post("/quiz-attempts/{quizID}/{chapterID}/answer")
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("save answer: %s: %s", resp.Status(), envelope.Error)
	}
	return nil
}

func (c *RestClient) Submit(ctx context.Context, quizID, chapterID string, answers domain.AnswerSet) (domain.SubmissionResult, error) {
	var envelope submitEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]domain.AnswerSet{"answers": answers}).
		SetResult(&envelope).
		SetError(&envelope).
		SetPathParams(map[string]string{"quizID": quizID, "chapterID": chapterID}).
		Post("/quiz-attempts/{quizID}/{chapterID}/submit")
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("submit attempt: %w", err)
	}
	if resp.IsError() {
		return domain.SubmissionResult{}, fmt.Errorf("submit attempt: %s: %s", resp.Status(), envelope.Error)
	}
	return envelope.Result, nil
}

func (c *RestClient) Reset(ctx context.Context, quizID, chapterID string) error {
	var envelope successEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		SetError(&envelope).
		SetPathParams(map[string]string{"quizID": quizID, "chapterID": chapterID}).
		Delete("/quiz-attempts/{quizID}/{chapterID}")
	if err != nil {
		return fmt.Errorf("reset attempt: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("reset attempt: %s: %s", resp.Status(), envelope.Error)
	}
	return nil
}
