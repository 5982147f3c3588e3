package token

import (
	"errors"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Maker interface {
	CreateToken(user model.User) (string, error)
	VerifyToken(token string) (*model.User, error)
}

type entry struct {
	user      model.User
	expiresAt time.Time
}

// MemoryMaker 不透明的隨機 token，只存在記憶體
type MemoryMaker struct {
	ttl    time.Duration
	mu     sync.RWMutex
	tokens map[string]entry
}

func NewMemoryMaker(ttl time.Duration) *MemoryMaker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryMaker{ttl: ttl, tokens: make(map[string]entry)}
}

func (m *MemoryMaker) CreateToken(user model.User) (string, error) {
	tok := uuid.New().String()
	m.mu.Lock()
	m.tokens[tok] = entry{user: user, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
	return tok, nil
}

func (m *MemoryMaker) VerifyToken(token string) (*model.User, error) {
	m.mu.RLock()
	e, ok := m.tokens[token]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidToken
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.tokens, token)
		m.mu.Unlock()
		return nil, ErrInvalidToken
	}
	user := e.user
	return &user, nil
}
