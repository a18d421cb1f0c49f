package enrichment

import (
	"log/slog"
	"sync"

	"mediahub/internal/logging"
)

// Notifier receives one-way progress notifications.
type Notifier interface {
	Enriching(name string)
	Clear()
}

// StatusLine remembers the file currently being enriched.
type StatusLine struct {
	logger *slog.Logger

	mu      sync.Mutex
	current string
}

// NewStatusLine returns a notifier that logs at debug level.
func NewStatusLine(logger *slog.Logger) *StatusLine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StatusLine{logger: logger}
}

func (s *StatusLine) Enriching(name string) {
	s.mu.Lock()
	s.current = name
	s.mu.Unlock()
	s.logger.Debug("looking up metadata", logging.String("name", name))
}

func (s *StatusLine) Clear() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
}

// Current returns the name passed to the last Enriching call, or "".
func (s *StatusLine) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
