package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/auth"
)

// FeedHandler streams submission events to teacher dashboards over a
// websocket, one connection per watched quiz.
type FeedHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewFeedHandler(service *app.AttemptService) *FeedHandler {
	return &FeedHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and relays submission events until the client
// disconnects. Students cannot watch other students' results.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	if role := auth.RoleFromContext(r.Context()); role != "teacher" && role != "admin" {
		http.Error(w, "teacher role required", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.service.SubscribeSubmissions(quizID)
	defer cancel()

	// reader goroutine only detects close; the feed is one-directional
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
