package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestSubmissionFeedDeliversEvents(t *testing.T) {
	ctx := context.Background()
	service, server, authService := newFeedServer(t)
	defer server.Close()

	teacher, err := authService.IssueToken("t1", "teacher")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	url := "ws" + server.URL[len("http"):] + "/ws/submissions?quizId=quiz-1"
	header := http.Header{"Authorization": {"Bearer " + teacher}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// let the subscription register before the submit lands
	time.Sleep(50 * time.Millisecond)

	key := domain.AttemptKey{QuizID: "quiz-1", ChapterID: "chapter-1", StudentID: "s1"}
	if _, err := service.Submit(ctx, key, domain.AnswerSet{0: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var event app.SubmissionEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.StudentID != "s1" || event.Result.Score != 1 {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestSubmissionFeedRequiresTeacherRole(t *testing.T) {
	_, server, authService := newFeedServer(t)
	defer server.Close()

	student, err := authService.IssueToken("s1", "student")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	url := "ws" + server.URL[len("http"):] + "/ws/submissions?quizId=quiz-1"
	header := http.Header{"Authorization": {"Bearer " + student}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatalf("expected dial to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func newFeedServer(t *testing.T) (*app.AttemptService, *httptest.Server, *auth.Service) {
	t.Helper()
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"chapter-1": {
			ID:        "quiz-1",
			ChapterID: "chapter-1",
			Questions: []domain.Question{
				{Index: 0, Text: "Pick one", Options: []string{"wrong", "right"}, CorrectOptionIndex: 1},
			},
		},
	})
	service := app.NewAttemptService(
		memory.NewAttemptStore(),
		memory.NewQuizRepository(loader, time.Minute),
	)
	authService := auth.NewService("test-secret")
	return service, httptest.NewServer(NewRouter(service, authService)), authService
}
