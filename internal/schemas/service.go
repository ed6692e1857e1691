// Package schemas resolves the newest JSON schema per assessment kind and
// validates assessment documents against a bound schema.
package schemas

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/validation"
	"approved-premises-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Repository interface {
	NewestID(ctx context.Context, kind models.SchemaKind) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.JSONSchema, error)
}

// Service resolves which schema is newest from the repository on every call,
// so a freshly added schema takes effect immediately. Schema bodies are
// immutable once added and are cached in Redis by id, compiled schemas in memory.
type Service struct {
	repo      Repository
	redis     *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    logger.Logger

	mu       sync.RWMutex
	compiled map[uuid.UUID]*validation.Schema
}

func NewService(repo Repository, rdb *redis.Client, ttl time.Duration, keyPrefix string, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		redis:     rdb,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		logger:    log.WithFields(map[string]interface{}{"component": "schemas"}),
		compiled:  make(map[uuid.UUID]*validation.Schema),
	}
}

func (s *Service) GetNewestSchema(ctx context.Context, kind models.SchemaKind) (*models.JSONSchema, error) {
	id, err := s.repo.NewestID(ctx, kind)
	if err != nil {
		return nil, err
	}
	return s.byID(ctx, id)
}

func (s *Service) byID(ctx context.Context, id uuid.UUID) (*models.JSONSchema, error) {
	key := s.keyPrefix + id.String()

	if s.redis != nil {
		val, err := s.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var cached models.JSONSchema
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil && cached.ID == id {
				return &cached, nil
			}
			s.logger.Warn("discarding unreadable cached schema", map[string]interface{}{"key": key})
		case !errors.Is(err, redis.Nil):
			s.logger.Warn("schema cache unavailable", map[string]interface{}{"key": key, "error": err})
		}
	}

	schema, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && s.ttl > 0 {
		if data, err := json.Marshal(schema); err == nil {
			if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
				s.logger.Warn("failed to cache schema", map[string]interface{}{"key": key, "error": err})
			}
		}
	}

	return schema, nil
}

// Validate reports whether document conforms to schema. A schema that does
// not compile or a document that is not JSON fails validation.
func (s *Service) Validate(schema *models.JSONSchema, document json.RawMessage) bool {
	if schema == nil {
		return false
	}

	compiled, err := s.compile(schema)
	if err != nil {
		s.logger.Error("failed to compile schema", map[string]interface{}{
			"schemaId": schema.ID.String(),
			"error":    err,
		})
		return false
	}

	result, err := compiled.Validate(document)
	if err != nil {
		s.logger.Debug("document is not valid JSON", map[string]interface{}{"error": err})
		return false
	}
	if !result.Valid {
		s.logger.Debug("document failed schema validation", map[string]interface{}{
			"schemaId": schema.ID.String(),
			"errors":   result.GetErrorMessages(),
		})
	}
	return result.Valid
}

func (s *Service) compile(schema *models.JSONSchema) (*validation.Schema, error) {
	s.mu.RLock()
	compiled, ok := s.compiled[schema.ID]
	s.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := validation.Compile(schema.Schema)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.compiled[schema.ID] = compiled
	s.mu.Unlock()
	return compiled, nil
}
