package app

import (
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// SubmissionEvent notifies observers (e.g. a teacher dashboard) that a
// student finalized an attempt. Emitted once per attempt, on first finalize.
type SubmissionEvent struct {
	QuizID      string                  `json:"quizId"`
	ChapterID   string                  `json:"chapterId"`
	StudentID   string                  `json:"studentId"`
	Result      domain.SubmissionResult `json:"result"`
	SubmittedAt time.Time               `json:"submittedAt"`
}

// submissionHub fans submission events out to per-quiz subscribers.
type submissionHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan SubmissionEvent]struct{}
}

func newSubmissionHub() *submissionHub {
	return &submissionHub{
		subscribers: make(map[string]map[chan SubmissionEvent]struct{}),
	}
}

func (h *submissionHub) subscribe(quizID string) (<-chan SubmissionEvent, func()) {
	ch := make(chan SubmissionEvent, 8)

	h.mu.Lock()
	if h.subscribers[quizID] == nil {
		h.subscribers[quizID] = make(map[chan SubmissionEvent]struct{})
	}
	h.subscribers[quizID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *submissionHub) publish(event SubmissionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[event.QuizID] {
		select {
		case ch <- event:
		default:
			// drop the oldest queued event so slow observers never block submits
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
