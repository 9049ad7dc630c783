package token

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryRepository builds an in-memory token store for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{tokens: make(map[string]Token)}
}

func (r *memoryRepository) Create(_ context.Context, t Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.ID] = t
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[id]
	if !ok {
		return Token{}, ErrNotFound
	}
	return t, nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, login, realm string) ([]Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tokens []Token
	for _, t := range r.tokens {
		if t.OwnerLogin == login && t.OwnerRealm == realm {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.Before(tokens[j].CreatedAt) })
	return tokens, nil
}

func (r *memoryRepository) UpdatePINHash(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.PINHash = hash
	r.tokens[id] = t
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(r.tokens, id)
	return nil
}
