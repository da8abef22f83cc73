package repository

import (
	"context"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	"ARSPull/pkg/queue"
)

// MsgTypeExecuteSignal is the queue message type for execution handoff.
const MsgTypeExecuteSignal = "execute_signal"

// RedisHandoffQueue implements HandoffQueue on the Redis-backed queue. Only
// signals at or above the score floor are handed to the execution layer;
// the rest are observable through the store and the API but never traded.
type RedisHandoffQueue struct {
	q        queue.QueueService
	minScore float64
}

// NewRedisHandoffQueue creates a handoff queue with a minimum ARS score.
func NewRedisHandoffQueue(q queue.QueueService, minScore float64) domrepo.HandoffQueue {
	return &RedisHandoffQueue{q: q, minScore: minScore}
}

func (h *RedisHandoffQueue) Enqueue(ctx context.Context, s *models.ProcessedSignal) error {
	if s == nil || s.ARSScore < h.minScore || s.RecommendedSize <= 0 {
		return nil
	}
	return h.q.PublishMessage(ctx, MsgTypeExecuteSignal, s)
}
