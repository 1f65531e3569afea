package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"quiz-attempt-service/internal/domain"
)

// FallbackCache is the client-local durable store used when the remote
// service is unreachable. One entry per chapter. It is private to the device
// and never treated as shared state.
type FallbackCache interface {
	Load(chapterID string) (domain.AnswerSet, error)
	Store(chapterID string, answers domain.AnswerSet) error
	Clear(chapterID string) error
}

// FileCache keeps one JSON file per chapter under dir, named
// quiz_answers_{chapterID}.json.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) Load(chapterID string) (domain.AnswerSet, error) {
	raw, err := os.ReadFile(c.path(chapterID))
	if os.IsNotExist(err) {
		return domain.AnswerSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fallback entry: %w", err)
	}
	var answers domain.AnswerSet
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode fallback entry: %w", err)
	}
	return answers, nil
}

func (c *FileCache) Store(chapterID string, answers domain.AnswerSet) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode fallback entry: %w", err)
	}
	if err := os.WriteFile(c.path(chapterID), raw, 0o600); err != nil {
		return fmt.Errorf("write fallback entry: %w", err)
	}
	return nil
}

func (c *FileCache) Clear(chapterID string) error {
	err := os.Remove(c.path(chapterID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove fallback entry: %w", err)
	}
	return nil
}

func (c *FileCache) path(chapterID string) string {
	return filepath.Join(c.dir, "quiz_answers_"+chapterID+".json")
}
