package registry

import (
	"time"

	"github.com/conneroisu/strata/internal/types"
)

// Watch returns a channel that receives hierarchy change events. Events
// are delivered best-effort: a full channel is skipped rather than
// blocking the mutation path.
func (m *Manager) Watch() <-chan types.ChangeEvent {
	ch := make(chan types.ChangeEvent, 100)
	m.watchers = append(m.watchers, ch)
	return ch
}

// Unwatch removes a watcher channel and closes it.
func (m *Manager) Unwatch(ch <-chan types.ChangeEvent) {
	for i, watcher := range m.watchers {
		if watcher == ch {
			close(watcher)
			m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
			break
		}
	}
}

func (m *Manager) emit(changeType types.ChangeType, c *types.Component) {
	event := types.ChangeEvent{
		Type:      changeType,
		Component: c,
		Timestamp: time.Now(),
	}

	for _, watcher := range m.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
