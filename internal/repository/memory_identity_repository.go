package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/queue-service/internal/domain"
)

// Memory-backed identity stores for running without Postgres. They honor
// the same pgx.ErrNoRows contract as the database implementations so
// callers need no special casing.

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

// NewMemoryUserRepository builds an in-memory user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	r.byEmail[normalizeEmail(user.Email)] = user.ID
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = *user
	r.byEmail[normalizeEmail(user.Email)] = user.ID
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := r.byID[id]
	return &user, nil
}

type memoryAgentRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Agent
	byEmail map[string]string
}

// NewMemoryAgentRepository builds an in-memory agent store.
func NewMemoryAgentRepository() AgentRepository {
	return &memoryAgentRepository{
		byID:    make(map[string]domain.Agent),
		byEmail: make(map[string]string),
	}
}

func (r *memoryAgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agent.ID == "" {
		agent.ID = uuid.NewString()
	}
	now := time.Now()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	r.byID[agent.ID] = *agent
	r.byEmail[normalizeEmail(agent.Email)] = agent.ID
	return nil
}

func (r *memoryAgentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	agent.UpdatedAt = time.Now()
	r.byID[agent.ID] = *agent
	r.byEmail[normalizeEmail(agent.Email)] = agent.ID
	return nil
}

func (r *memoryAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &agent, nil
}

func (r *memoryAgentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	agent := r.byID[id]
	return &agent, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
