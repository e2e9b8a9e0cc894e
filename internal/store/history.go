// internal/store/history.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"proactive-notify/internal/common/config"
	apperrors "proactive-notify/internal/common/errors"
	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/models"
)

const (
	historyKeyPrefix = "notify:history:"
	historyIndexKey  = "notify:history:index"
	historyIndexCap  = 200
)

// Entry is a delivered notification as read back from the history store.
// Detail stays raw because the concrete detail type is only known at
// synthesis time.
type Entry struct {
	ID             string          `json:"id"`
	Type           models.Type     `json:"type"`
	Priority       models.Priority `json:"priority"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	ActionRequired bool            `json:"actionRequired"`
	Detail         json.RawMessage `json:"detail,omitempty"`
	DeliveredAt    time.Time       `json:"deliveredAt"`
}

// History records delivered notifications in Redis with a TTL, so the UI
// can show a recent-activity feed across restarts. It implements the
// delivery sink contract and is meant to ride along in a fanout; a write
// failure is reported to the fanout, logged there, and never blocks the
// user-facing channels.
type History struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
	logger logger.Logger
}

func NewHistory(cfg config.RedisConfig, log logger.Logger) *History {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	return &History{
		client: client,
		ttl:    time.Duration(cfg.HistoryTTLHours) * time.Hour,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// NewHistoryWithClient injects a Redis client, for tests.
func NewHistoryWithClient(client *redis.Client, ttl time.Duration, log logger.Logger) *History {
	return &History{
		client: client,
		ttl:    ttl,
		clock:  time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "history"}),
	}
}

// Ping tests the Redis connection.
func (h *History) Ping(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (h *History) Close() error {
	if h.client != nil {
		return h.client.Close()
	}
	return nil
}

func (h *History) Name() string { return "history" }

// Deliver records the notification; it satisfies the delivery sink
// contract so the history rides the same dispatch path as the user-facing
// sinks.
func (h *History) Deliver(ctx context.Context, n *models.Notification) error {
	entry := Entry{
		ID:             n.ID,
		Type:           n.Type,
		Priority:       n.Priority,
		Title:          n.Title,
		Message:        n.Message,
		ActionRequired: n.ActionRequired,
		DeliveredAt:    h.clock().UTC(),
	}
	if n.Detail != nil {
		raw, err := json.Marshal(n.Detail)
		if err == nil {
			entry.Detail = raw
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewHistoryWriteFailedError(err)
	}

	key := historyKeyPrefix + n.ID
	pipe := h.client.TxPipeline()
	pipe.Set(ctx, key, data, h.ttl)
	pipe.LPush(ctx, historyIndexKey, n.ID)
	pipe.LTrim(ctx, historyIndexKey, 0, historyIndexCap-1)
	if h.ttl > 0 {
		pipe.Expire(ctx, historyIndexKey, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewHistoryWriteFailedError(err)
	}
	return nil
}

// Recent returns up to limit delivered notifications, newest first.
// Entries whose payload already expired are skipped.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := h.client.LRange(ctx, historyIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, apperrors.NewHistoryReadFailedError(err)
	}

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		data, err := h.client.Get(ctx, historyKeyPrefix+id).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, apperrors.NewHistoryReadFailedError(err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			h.logger.WithError(err).Warn("corrupt history entry", map[string]interface{}{
				"notificationId": id,
			})
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
