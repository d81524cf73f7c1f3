package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aria-assistant/aria/internal/metrics"
)

// Encryptor seals and opens integration API keys at rest.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Service owns integration CRUD and command execution. It keeps a marker of
// the operation currently in flight per user; a new execution overwrites
// the previous marker rather than queueing behind it.
type Service struct {
	repo      Repository
	cache     *Cache
	resolver  *Resolver
	executor  *Executor
	encryptor Encryptor

	mu      sync.RWMutex
	current map[string]Operation
}

// Operation describes the most recent command dispatch for a user.
type Operation struct {
	Integration string    `json:"integration"`
	Command     string    `json:"command"`
	StartedAt   time.Time `json:"started_at"`
	Done        bool      `json:"done"`
}

func NewService(repo Repository, cache *Cache, executor *Executor, encryptor Encryptor) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		resolver:  NewResolver(cache),
		executor:  executor,
		encryptor: encryptor,
		current:   make(map[string]Operation),
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]Integration, error) {
	return s.cache.List(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Integration, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, req *CreateIntegrationRequest) (*Integration, error) {
	apiKey := ""
	if req.APIKey != "" {
		sealed, err := s.encryptor.Encrypt(req.APIKey)
		if err != nil {
			return nil, fmt.Errorf("encrypting api key: %w", err)
		}
		apiKey = sealed
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	integ := &Integration{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      req.Name,
		URL:       req.URL,
		Type:      req.Type,
		Category:  req.Category,
		APIKey:    apiKey,
		Commands:  req.Commands,
		Headers:   req.Headers,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, integ); err != nil {
		return nil, err
	}
	s.cache.Invalidate(userID)
	return integ, nil
}

func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, req *UpdateIntegrationRequest) (*Integration, error) {
	integ, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if integ == nil {
		return nil, nil
	}

	if req.Name != nil {
		integ.Name = *req.Name
	}
	if req.URL != nil {
		integ.URL = *req.URL
	}
	if req.Type != nil {
		integ.Type = *req.Type
	}
	if req.Category != nil {
		integ.Category = *req.Category
	}
	if req.APIKey != nil {
		if *req.APIKey == "" {
			integ.APIKey = ""
		} else {
			sealed, err := s.encryptor.Encrypt(*req.APIKey)
			if err != nil {
				return nil, fmt.Errorf("encrypting api key: %w", err)
			}
			integ.APIKey = sealed
		}
	}
	if req.Commands != nil {
		integ.Commands = *req.Commands
	}
	if req.Headers != nil {
		integ.Headers = *req.Headers
	}
	if req.Active != nil {
		integ.Active = *req.Active
	}
	integ.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, integ); err != nil {
		return nil, err
	}
	s.cache.Invalidate(userID)
	return integ, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

// Execute resolves the named integration and command, dispatches it, and
// returns the integration's answer verbatim. Lookup failures return typed
// errors listing the alternatives the user actually has.
func (s *Service) Execute(ctx context.Context, userID string, req *ExecuteRequest) (*ExecutionResult, error) {
	integ, err := s.resolver.Resolve(ctx, userID, req.Integration)
	if err != nil {
		metrics.CommandsExecutedTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}
	if integ.ID == uuid.Nil {
		metrics.CommandsExecutedTotal.WithLabelValues("not_synced").Inc()
		return nil, &NotSyncedError{Integration: integ.Name}
	}
	if _, ok := integ.FindCommand(req.Command); !ok {
		metrics.CommandsExecutedTotal.WithLabelValues("not_found").Inc()
		return nil, &CommandNotFoundError{
			Integration: integ.Name,
			Command:     req.Command,
			Available:   integ.CommandNames(),
		}
	}

	s.setCurrent(userID, Operation{
		Integration: integ.Name,
		Command:     req.Command,
		StartedAt:   time.Now().UTC(),
	})

	result, err := s.executor.Execute(ctx, integ, req.Command, req.Parameters)
	s.finishCurrent(userID)
	if err != nil {
		metrics.CommandsExecutedTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if result.Error != nil {
		metrics.CommandsExecutedTotal.WithLabelValues("integration_error").Inc()
		slog.Warn("integration reported an error",
			"integration", integ.Name,
			"command", req.Command,
			"message", result.Error.Message)
	} else {
		metrics.CommandsExecutedTotal.WithLabelValues("success").Inc()
	}
	return result, nil
}

// CurrentOperation reports the user's latest command dispatch, if any.
func (s *Service) CurrentOperation(userID string) (Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.current[userID]
	return op, ok
}

func (s *Service) setCurrent(userID string, op Operation) {
	s.mu.Lock()
	s.current[userID] = op
	s.mu.Unlock()
}

func (s *Service) finishCurrent(userID string) {
	s.mu.Lock()
	if op, ok := s.current[userID]; ok {
		op.Done = true
		s.current[userID] = op
	}
	s.mu.Unlock()
}
