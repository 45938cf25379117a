package session

import (
	"sync"

	"github.com/aretw0/few/pkg/domain"
)

// subscriberBuffer is how many diffs a slow subscriber may lag behind before diffs are dropped.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan *domain.StoreDiff
	once sync.Once
}

// Subscribe returns a channel receiving the diff of every change persisted for sessionID,
// and a cancel function that closes it. Diffs are dropped, not queued, for subscribers
// more than a few changes behind.
func (m *Manager) Subscribe(sessionID string) (<-chan *domain.StoreDiff, func()) {
	sub := &subscriber{ch: make(chan *domain.StoreDiff, subscriberBuffer)}

	m.subsMu.Lock()
	if m.subs[sessionID] == nil {
		m.subs[sessionID] = make(map[*subscriber]struct{})
	}
	m.subs[sessionID][sub] = struct{}{}
	m.subsMu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			m.subsMu.Lock()
			delete(m.subs[sessionID], sub)
			if len(m.subs[sessionID]) == 0 {
				delete(m.subs, sessionID)
			}
			m.subsMu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (m *Manager) publish(sessionID string, diff *domain.StoreDiff) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for sub := range m.subs[sessionID] {
		select {
		case sub.ch <- diff:
		default:
			m.logger.Warn("dropping store diff for slow subscriber", "session_id", sessionID)
		}
	}
}
