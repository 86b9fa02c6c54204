// Package status tracks ingestion progress for external observers.
package status

import (
	"sync"
	"time"

	"github.com/ternarybob/floatwatch/internal/models"
)

// Service is the canonical StatusSink implementation. A single instance is
// shared between the monitor (writer) and any observer (reader).
type Service struct {
	mu     sync.RWMutex
	status models.FetchStatus
}

// NewService creates a status service in the idle state.
func NewService() *Service {
	return &Service{
		status: models.FetchStatus{
			Message: "Idle",
		},
	}
}

// SetMessage updates the current stage message and progress percentage.
func (s *Service) SetMessage(message string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.status.Message = message
	s.status.Progress = progress
	s.status.LastUpdate = &now
}

// SetError records a cycle failure. The message and progress are left as-is
// so observers can see where the cycle stopped.
func (s *Service) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.status.LastUpdate = &now
}

// MarkCycleComplete records the outcome of a finished cycle and resets the
// stage message. A successful cycle clears any prior error.
func (s *Service) MarkCycleComplete(saved, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.status.CycleCount++
	s.status.ArticlesSaved = saved
	s.status.ArticlesTotal = total
	s.status.Message = "Idle"
	s.status.Progress = 100
	s.status.LastError = ""
	s.status.LastUpdate = &now
}

// Snapshot returns a copy of the current status.
func (s *Service) Snapshot() models.FetchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
