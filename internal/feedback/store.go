package feedback

import (
	"context"
	"sync"
)

// stateRowID is the literal singleton key for the feedback-loop state row.
const stateRowID = "global"

// Store persists the singleton FeedbackLoopState row.
type Store interface {
	Get(ctx context.Context) (State, error)
	Put(ctx context.Context, s State) error
}

type memoryStore struct {
	mu    sync.Mutex
	state State
	init  bool
}

// NewMemoryStore returns a Store seeded with DefaultSettings.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Get(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.init {
		m.state = State{Settings: DefaultSettings()}
		m.init = true
	}
	return m.state, nil
}

func (m *memoryStore) Put(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.init = true
	return nil
}
