package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/client"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestRejectsMissingBearer(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/quizzes/by-chapter/chapter-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestFetchQuizStripsAnswerKey(t *testing.T) {
	server, authService := newTestServer(t)
	defer server.Close()

	body := doGet(t, server.URL+"/quizzes/by-chapter/chapter-1", studentToken(t, authService, "s1"))
	if !strings.Contains(body, `"exists":true`) {
		t.Fatalf("expected quiz to exist, got %s", body)
	}
	if strings.Contains(body, "correctOptionIndex") {
		t.Fatalf("answer key leaked to the client: %s", body)
	}

	body = doGet(t, server.URL+"/quizzes/by-chapter/chapter-unknown", studentToken(t, authService, "s1"))
	if !strings.Contains(body, `"exists":false`) {
		t.Fatalf("expected missing quiz, got %s", body)
	}
}

func TestAnswerFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	server, authService := newTestServer(t)
	defer server.Close()

	remote := client.NewRestClient(server.URL, studentToken(t, authService, "s1"), 5*time.Second)
	quiz, exists, err := remote.FetchQuiz(ctx, "chapter-1")
	if err != nil {
		t.Fatalf("fetch quiz: %v", err)
	}
	if !exists || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}

	coordinator := client.NewCoordinator(remote, client.NewFileCache(t.TempDir()), quiz)
	if _, err := coordinator.SelectOption(ctx, 0, 1); err != nil {
		t.Fatalf("select 0: %v", err)
	}
	if _, err := coordinator.SelectOption(ctx, 1, 0); err != nil {
		t.Fatalf("select 1: %v", err)
	}

	result, err := coordinator.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 2 || result.Percentage != 100.0 {
		t.Fatalf("unexpected result %+v", result)
	}

	// a fresh coordinator reloads the finalized snapshot from the server
	reload := client.NewCoordinator(remote, client.NewFileCache(t.TempDir()), quiz)
	answers, err := reload.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if answers[0] != 1 || answers[1] != 0 {
		t.Fatalf("expected persisted answers, got %v", answers)
	}
}

func TestStudentsAreIsolatedByToken(t *testing.T) {
	ctx := context.Background()
	server, authService := newTestServer(t)
	defer server.Close()

	alice := client.NewRestClient(server.URL, studentToken(t, authService, "alice"), 5*time.Second)
	bob := client.NewRestClient(server.URL, studentToken(t, authService, "bob"), 5*time.Second)

	if err := alice.PutAnswer(ctx, "quiz-1", "chapter-1", 0, 1); err != nil {
		t.Fatalf("alice put: %v", err)
	}

	answers, err := bob.GetAnswers(ctx, "quiz-1", "chapter-1")
	if err != nil {
		t.Fatalf("bob get: %v", err)
	}
	if len(answers) != 0 {
		t.Fatalf("expected bob's attempt empty, got %v", answers)
	}
}

func TestServerSideWriteOnce(t *testing.T) {
	ctx := context.Background()
	server, authService := newTestServer(t)
	defer server.Close()

	// a client that skips the coordinator lock still cannot overwrite
	remote := client.NewRestClient(server.URL, studentToken(t, authService, "s1"), 5*time.Second)
	if err := remote.PutAnswer(ctx, "quiz-1", "chapter-1", 0, 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := remote.PutAnswer(ctx, "quiz-1", "chapter-1", 0, 0); err != nil {
		t.Fatalf("second put: %v", err)
	}

	answers, err := remote.GetAnswers(ctx, "quiz-1", "chapter-1")
	if err != nil {
		t.Fatalf("get answers: %v", err)
	}
	if answers[0] != 1 {
		t.Fatalf("expected first answer kept, got %v", answers)
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	ctx := context.Background()
	server, authService := newTestServer(t)
	defer server.Close()

	remote := client.NewRestClient(server.URL, studentToken(t, authService, "s1"), 5*time.Second)
	_, err := remote.Submit(ctx, "quiz-1", "chapter-1", domain.AnswerSet{0: 1})
	if err == nil {
		t.Fatalf("expected validation failure for incomplete set")
	}
}

func TestResetEndpoint(t *testing.T) {
	ctx := context.Background()
	server, authService := newTestServer(t)
	defer server.Close()

	remote := client.NewRestClient(server.URL, studentToken(t, authService, "s1"), 5*time.Second)
	if err := remote.PutAnswer(ctx, "quiz-1", "chapter-1", 0, 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := remote.Reset(ctx, "quiz-1", "chapter-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	answers, err := remote.GetAnswers(ctx, "quiz-1", "chapter-1")
	if err != nil {
		t.Fatalf("get answers: %v", err)
	}
	if len(answers) != 0 {
		t.Fatalf("expected empty attempt after reset, got %v", answers)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"chapter-1": {
			ID:        "quiz-1",
			ChapterID: "chapter-1",
			Questions: []domain.Question{
				{Index: 0, Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOptionIndex: 1},
				{Index: 1, Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectOptionIndex: 0},
			},
		},
	})
	service := app.NewAttemptService(
		memory.NewAttemptStore(),
		memory.NewQuizRepository(loader, time.Minute),
	)
	authService := auth.NewService("test-secret")
	return httptest.NewServer(NewRouter(service, authService)), authService
}

func studentToken(t *testing.T, authService *auth.Service, studentID string) string {
	t.Helper()
	token, err := authService.IssueToken(studentID, "student")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func doGet(t *testing.T, url, token string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}
