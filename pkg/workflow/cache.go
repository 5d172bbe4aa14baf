package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reliefops/aidflow/pkg/models"
	"github.com/reliefops/aidflow/pkg/persistence"
)

const templateCacheKeyPrefix = "aidflow:template:"

// RedisClient is the subset of redis.UniversalClient the template cache
// uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedTemplateRepository is a read-through Redis cache in front of a
// template repository. Template reads dominate the workload (one per
// execution), while writes are rare authoring operations, which invalidate
// the cached entry. Cache failures degrade to the backing store and are
// logged, never fatal.
type CachedTemplateRepository struct {
	inner  persistence.TemplateRepository
	client RedisClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedTemplateRepository(inner persistence.TemplateRepository, client RedisClient, ttl time.Duration, logger *slog.Logger) *CachedTemplateRepository {
	return &CachedTemplateRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedTemplateRepository) GetByName(ctx context.Context, name string) (*models.WorkflowTemplate, error) {
	key := templateCacheKeyPrefix + name

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var template models.WorkflowTemplate
		if err := json.Unmarshal([]byte(cached), &template); err == nil {
			return &template, nil
		}

		// A corrupt entry falls through to the backing store and gets
		// rewritten below.
		c.logger.WarnContext(ctx, "Dropping corrupt template cache entry", "template", name)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "Template cache read failed", "template", name, "error", err)
	}

	template, err := c.inner.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(template); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "Template cache write failed", "template", name, "error", err)
		}
	}

	return template, nil
}

func (c *CachedTemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	if err := c.inner.Save(ctx, template); err != nil {
		return err
	}

	if err := c.client.Del(ctx, templateCacheKeyPrefix+template.Name).Err(); err != nil {
		return fmt.Errorf("template %s saved but cache invalidation failed: %w", template.Name, err)
	}

	return nil
}

func (c *CachedTemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	return c.inner.List(ctx)
}

func (c *CachedTemplateRepository) Delete(ctx context.Context, name string) error {
	if err := c.inner.Delete(ctx, name); err != nil {
		return err
	}

	if err := c.client.Del(ctx, templateCacheKeyPrefix+name).Err(); err != nil {
		return fmt.Errorf("template %s deleted but cache invalidation failed: %w", name, err)
	}

	return nil
}
