package credstore

import (
	"sync"

	"github.com/trezcool/masomo-portal/core/session"
)

var _ session.CredentialStore = (*Memory)(nil)

// Memory keeps the token for the lifetime of the process.
type Memory struct {
	token string
	mutex sync.RWMutex
}

func NewMemory(token ...string) *Memory {
	m := &Memory{}
	if len(token) > 0 {
		m.token = token[0]
	}
	return m
}

func (m *Memory) Save(token string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.token = token
	return nil
}

func (m *Memory) Load() (string, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.token, m.token != ""
}

func (m *Memory) Clear() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.token = ""
	return nil
}
