package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	domainjob "github.com/apphub/tagging-service/internal/domain/job"
	"github.com/apphub/tagging-service/internal/domain/model"
)

// Queue key layout, all under the configured prefix:
//
//	job:<id>            serialized QueuedJob
//	guard:<id>          dedup guard, held from enqueue until terminal state
//	waiting             list of job ids ready for reservation
//	delayed             zset of job ids scored by retry-ready time
//	processing:<name>   per-consumer list of reserved job ids
//	consumer:<name>     consumer heartbeat, refreshed on every reservation
//	consumers           set of consumer names, for stats and reclaim
//	completed / failed  trimmed history lists
const (
	defaultQueuePrefix        = "tagging:"
	defaultGuardTTL           = 24 * time.Hour
	defaultConsumerTTL        = 30 * time.Second
	defaultCompletedRetention = 1000
	defaultFailedRetention    = 2000
)

// RedisQueueConfig configures the durable job queue.
type RedisQueueConfig struct {
	Prefix             string
	Policy             *domainjob.RetryPolicy
	GuardTTL           time.Duration
	ConsumerTTL        time.Duration
	CompletedRetention int64
	FailedRetention    int64
	Logger             *slog.Logger
	TimeProvider       TimeProvider
}

// RedisQueue is the at-least-once tagging job queue over Redis. Job ids are
// deterministic per repository, so concurrent producers collapse onto one
// live job; the guard key makes re-enqueueing a no-op until that job reaches
// a terminal state.
type RedisQueue struct {
	client       redis.UniversalClient
	prefix       string
	policy       *domainjob.RetryPolicy
	guardTTL     time.Duration
	consumerTTL  time.Duration
	keepDone     int64
	keepFailed   int64
	logger       *slog.Logger
	timeProvider TimeProvider

	mu        sync.RWMutex
	listeners map[int]func(model.Transition)
	nextID    int

	pubsubMu sync.Mutex
	pubsub   *redis.PubSub
}

// NewRedisQueue creates a queue over an existing Redis client.
func NewRedisQueue(client redis.UniversalClient, cfg RedisQueueConfig) *RedisQueue {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultQueuePrefix
	}
	policy := cfg.Policy
	if policy == nil {
		policy = domainjob.DefaultRetryPolicy()
	}
	guardTTL := cfg.GuardTTL
	if guardTTL <= 0 {
		guardTTL = defaultGuardTTL
	}
	consumerTTL := cfg.ConsumerTTL
	if consumerTTL <= 0 {
		consumerTTL = defaultConsumerTTL
	}
	keepDone := cfg.CompletedRetention
	if keepDone <= 0 {
		keepDone = defaultCompletedRetention
	}
	keepFailed := cfg.FailedRetention
	if keepFailed <= 0 {
		keepFailed = defaultFailedRetention
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &RedisQueue{
		client:       client,
		prefix:       prefix,
		policy:       policy,
		guardTTL:     guardTTL,
		consumerTTL:  consumerTTL,
		keepDone:     keepDone,
		keepFailed:   keepFailed,
		logger:       logger.With("component", "redis_queue"),
		timeProvider: tp,
		listeners:    make(map[int]func(model.Transition)),
	}
}

func (q *RedisQueue) jobKey(id string) string      { return q.prefix + "job:" + id }
func (q *RedisQueue) guardKey(id string) string    { return q.prefix + "guard:" + id }
func (q *RedisQueue) waitingKey() string           { return q.prefix + "waiting" }
func (q *RedisQueue) delayedKey() string           { return q.prefix + "delayed" }
func (q *RedisQueue) completedKey() string         { return q.prefix + "completed" }
func (q *RedisQueue) failedKey() string            { return q.prefix + "failed" }
func (q *RedisQueue) consumersKey() string         { return q.prefix + "consumers" }
func (q *RedisQueue) processingKey(c string) string { return q.prefix + "processing:" + c }
func (q *RedisQueue) heartbeatKey(c string) string  { return q.prefix + "consumer:" + c }

// WakeChannel is the pub/sub channel published whenever work becomes
// available. Workers block on it through the notifier.
func (q *RedisQueue) WakeChannel() string { return q.prefix + "queue:wake" }

// Enqueue admits a job for a repository. When a live job for the same
// repository already exists the call is a no-op and reports deduped=true;
// either way the deterministic job id is returned.
func (q *RedisQueue) Enqueue(ctx context.Context, params model.EnqueueParams) (string, bool, error) {
	if err := params.Validate(); err != nil {
		return "", false, err
	}

	jobID := domainjob.DeriveID(params.RepositoryID)
	acquired, err := q.client.SetNX(ctx, q.guardKey(jobID), params.RepositoryID, q.guardTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire enqueue guard: %w", err)
	}
	if !acquired {
		return jobID, true, nil
	}

	queued := model.QueuedJob{
		ID:           jobID,
		RepositoryID: params.RepositoryID,
		Trigger:      params.Trigger,
		Reason:       params.Reason,
		State:        model.QueueStateWaiting,
		MaxAttempts:  q.policy.MaxAttempts(),
		EnqueuedAt:   q.timeProvider.Now().UTC(),
	}
	if err := q.saveJob(ctx, &queued); err != nil {
		q.releaseGuard(ctx, jobID)
		return "", false, err
	}
	if err := q.client.LPush(ctx, q.waitingKey(), jobID).Err(); err != nil {
		q.releaseGuard(ctx, jobID)
		return "", false, fmt.Errorf("push waiting job: %w", err)
	}

	q.wake(ctx)
	q.emit(model.Transition{
		Kind:         model.TransitionWaiting,
		JobID:        jobID,
		RepositoryID: params.RepositoryID,
	})
	return jobID, false, nil
}

// ReserveNext moves the next waiting job onto the consumer's processing list
// and marks it active. Returns model.ErrNoJobsAvailable when the waiting list
// is empty.
func (q *RedisQueue) ReserveNext(ctx context.Context, consumer string) (*model.QueuedJob, error) {
	if consumer == "" {
		return nil, errors.New("consumer name is required")
	}
	pipe := q.client.Pipeline()
	pipe.SAdd(ctx, q.consumersKey(), consumer)
	pipe.Set(ctx, q.heartbeatKey(consumer), "1", q.consumerTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("register consumer: %w", err)
	}

	jobID, err := q.client.LMove(ctx, q.waitingKey(), q.processingKey(consumer), "RIGHT", "LEFT").Result()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNoJobsAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("reserve job: %w", err)
	}

	queued, err := q.loadJob(ctx, jobID)
	if err != nil {
		// The metadata is gone (e.g. a flushed test database); drop the
		// orphaned reservation rather than wedging the consumer.
		q.dropReservation(ctx, consumer, jobID)
		return nil, err
	}

	queued.State = model.QueueStateActive
	queued.Attempts++
	if err := q.saveJob(ctx, queued); err != nil {
		q.dropReservation(ctx, consumer, jobID)
		return nil, err
	}

	q.emit(model.Transition{
		Kind:         model.TransitionActive,
		JobID:        queued.ID,
		RepositoryID: queued.RepositoryID,
	})
	return queued, nil
}

// Complete acknowledges a reserved job as done and releases its dedup guard.
func (q *RedisQueue) Complete(ctx context.Context, consumer, jobID string) error {
	queued, err := q.loadJob(ctx, jobID)
	if err != nil {
		return err
	}

	q.dropReservation(ctx, consumer, jobID)
	queued.State = model.QueueStateCompleted
	queued.LastError = ""
	if err := q.saveJob(ctx, queued); err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.completedKey(), jobID)
	pipe.LTrim(ctx, q.completedKey(), 0, q.keepDone-1)
	pipe.Del(ctx, q.guardKey(jobID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	q.emit(model.Transition{
		Kind:         model.TransitionCompleted,
		JobID:        queued.ID,
		RepositoryID: queued.RepositoryID,
	})
	return nil
}

// Fail records a failed attempt. Transient failures below the attempt limit
// re-enter the queue via the delayed zset; permanent or exhausted failures
// are discarded to the failed list and release the guard. Reports whether a
// retry was scheduled.
func (q *RedisQueue) Fail(ctx context.Context, consumer, jobID, reason string, transient bool) (bool, error) {
	queued, err := q.loadJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	q.dropReservation(ctx, consumer, jobID)
	queued.LastError = reason

	if transient {
		if decision := q.policy.Next(queued.Attempts); decision.Retry {
			queued.State = model.QueueStateDelayed
			if err := q.saveJob(ctx, queued); err != nil {
				return false, err
			}
			readyAt := q.timeProvider.Now().Add(decision.Delay)
			if err := q.client.ZAdd(ctx, q.delayedKey(), redis.Z{
				Score:  float64(readyAt.UnixMilli()),
				Member: jobID,
			}).Err(); err != nil {
				return false, fmt.Errorf("schedule retry: %w", err)
			}
			q.logger.InfoContext(ctx, "job retry scheduled",
				"job_id", jobID,
				"repository_id", queued.RepositoryID,
				"attempt", queued.Attempts,
				"delay", decision.Delay.String())
			return true, nil
		}
	}

	queued.State = model.QueueStateFailed
	if err := q.saveJob(ctx, queued); err != nil {
		return false, err
	}

	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.failedKey(), jobID)
	pipe.LTrim(ctx, q.failedKey(), 0, q.keepFailed-1)
	pipe.Del(ctx, q.guardKey(jobID))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("record failure: %w", err)
	}

	q.emit(model.Transition{
		Kind:         model.TransitionFailed,
		JobID:        queued.ID,
		RepositoryID: queued.RepositoryID,
		Reason:       reason,
	})
	return false, nil
}

// PromoteDelayed moves every delayed job whose backoff has elapsed back onto
// the waiting list. Returns the number promoted. The worker runner ticks this.
func (q *RedisQueue) PromoteDelayed(ctx context.Context) (int, error) {
	now := q.timeProvider.Now()
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list due jobs: %w", err)
	}

	promoted := 0
	for _, jobID := range due {
		removed, err := q.client.ZRem(ctx, q.delayedKey(), jobID).Result()
		if err != nil {
			return promoted, fmt.Errorf("remove due job: %w", err)
		}
		if removed == 0 {
			// Another promoter won the race for this id.
			continue
		}

		queued, err := q.loadJob(ctx, jobID)
		if err != nil {
			q.logger.WarnContext(ctx, "delayed job metadata missing, dropping", "job_id", jobID, "error", err)
			continue
		}
		queued.State = model.QueueStateWaiting
		if err := q.saveJob(ctx, queued); err != nil {
			return promoted, err
		}
		if err := q.client.LPush(ctx, q.waitingKey(), jobID).Err(); err != nil {
			return promoted, fmt.Errorf("requeue due job: %w", err)
		}
		promoted++
		q.emit(model.Transition{
			Kind:         model.TransitionWaiting,
			JobID:        queued.ID,
			RepositoryID: queued.RepositoryID,
			Reason:       queued.LastError,
		})
	}

	if promoted > 0 {
		q.wake(ctx)
	}
	return promoted, nil
}

// ReclaimAbandoned moves jobs reserved by consumers whose heartbeat has
// lapsed back onto the waiting list, so a crashed or restarted worker's
// in-flight jobs are redelivered instead of idling behind the dedup guard.
// Returns the number of jobs requeued.
func (q *RedisQueue) ReclaimAbandoned(ctx context.Context) (int, error) {
	consumers, err := q.client.SMembers(ctx, q.consumersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("list consumers: %w", err)
	}

	reclaimed := 0
	for _, consumer := range consumers {
		alive, err := q.client.Exists(ctx, q.heartbeatKey(consumer)).Result()
		if err != nil {
			return reclaimed, fmt.Errorf("check consumer %s: %w", consumer, err)
		}
		if alive > 0 {
			continue
		}

		for {
			jobID, err := q.client.LMove(ctx, q.processingKey(consumer), q.waitingKey(), "RIGHT", "LEFT").Result()
			if errors.Is(err, redis.Nil) {
				break
			}
			if err != nil {
				return reclaimed, fmt.Errorf("reclaim from %s: %w", consumer, err)
			}

			queued, loadErr := q.loadJob(ctx, jobID)
			if loadErr != nil {
				q.logger.WarnContext(ctx, "reclaimed job metadata missing, dropping",
					"job_id", jobID, "consumer", consumer, "error", loadErr)
				if remErr := q.client.LRem(ctx, q.waitingKey(), 1, jobID).Err(); remErr != nil {
					q.logger.WarnContext(ctx, "drop reclaimed job failed", "job_id", jobID, "error", remErr)
				}
				q.releaseGuard(ctx, jobID)
				continue
			}
			queued.State = model.QueueStateWaiting
			if err := q.saveJob(ctx, queued); err != nil {
				return reclaimed, err
			}
			reclaimed++
			q.logger.InfoContext(ctx, "reclaimed abandoned job",
				"job_id", jobID, "repository_id", queued.RepositoryID, "consumer", consumer)
			q.emit(model.Transition{
				Kind:         model.TransitionWaiting,
				JobID:        queued.ID,
				RepositoryID: queued.RepositoryID,
				Reason:       queued.LastError,
			})
		}

		if err := q.client.SRem(ctx, q.consumersKey(), consumer).Err(); err != nil {
			q.logger.WarnContext(ctx, "deregister consumer failed", "consumer", consumer, "error", err)
		}
	}

	if reclaimed > 0 {
		q.wake(ctx)
	}
	return reclaimed, nil
}

// GetJob returns the queue metadata for a job id.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*model.QueuedJob, error) {
	return q.loadJob(ctx, jobID)
}

// Stats reports current queue depths.
func (q *RedisQueue) Stats(ctx context.Context) (*model.QueueStats, error) {
	stats := &model.QueueStats{}

	var err error
	if stats.Waiting, err = q.client.LLen(ctx, q.waitingKey()).Result(); err != nil {
		return nil, fmt.Errorf("waiting depth: %w", err)
	}
	if stats.Delayed, err = q.client.ZCard(ctx, q.delayedKey()).Result(); err != nil {
		return nil, fmt.Errorf("delayed depth: %w", err)
	}
	if stats.Completed, err = q.client.LLen(ctx, q.completedKey()).Result(); err != nil {
		return nil, fmt.Errorf("completed depth: %w", err)
	}
	if stats.Failed, err = q.client.LLen(ctx, q.failedKey()).Result(); err != nil {
		return nil, fmt.Errorf("failed depth: %w", err)
	}

	consumers, err := q.client.SMembers(ctx, q.consumersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}
	for _, consumer := range consumers {
		depth, err := q.client.LLen(ctx, q.processingKey(consumer)).Result()
		if err != nil {
			return nil, fmt.Errorf("processing depth for %s: %w", consumer, err)
		}
		stats.Active += depth
	}
	return stats, nil
}

// SubscribeTransitions registers an in-process listener for queue
// transitions. The returned function unsubscribes it. Listeners run
// synchronously on the transitioning goroutine and must not block.
func (q *RedisQueue) SubscribeTransitions(fn func(model.Transition)) func() {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.listeners[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.listeners, id)
		q.mu.Unlock()
	}
}

// WaitForWake blocks until another producer signals new work, the context
// ends, or the shared subscription closes. Implements job.Waiter.
func (q *RedisQueue) WaitForWake(ctx context.Context) error {
	pubsub, err := q.wakeSubscription(ctx)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-pubsub.Channel():
		if !ok {
			return errors.New("wake subscription closed")
		}
		return nil
	}
}

// Close tears down the wake subscription. The Redis client itself is owned
// by the caller.
func (q *RedisQueue) Close() error {
	q.pubsubMu.Lock()
	defer q.pubsubMu.Unlock()
	if q.pubsub == nil {
		return nil
	}
	err := q.pubsub.Close()
	q.pubsub = nil
	return err
}

func (q *RedisQueue) wakeSubscription(ctx context.Context) (*redis.PubSub, error) {
	q.pubsubMu.Lock()
	defer q.pubsubMu.Unlock()
	if q.pubsub == nil {
		pubsub := q.client.Subscribe(ctx, q.WakeChannel())
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("subscribe wake channel: %w", err)
		}
		q.pubsub = pubsub
	}
	return q.pubsub, nil
}

func (q *RedisQueue) wake(ctx context.Context) {
	if err := q.client.Publish(ctx, q.WakeChannel(), "wake").Err(); err != nil {
		q.logger.WarnContext(ctx, "wake publish failed", "error", err)
	}
}

func (q *RedisQueue) emit(t model.Transition) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, fn := range q.listeners {
		fn(t)
	}
}

func (q *RedisQueue) saveJob(ctx context.Context, queued *model.QueuedJob) error {
	data, err := json.Marshal(queued)
	if err != nil {
		return fmt.Errorf("marshal queued job: %w", err)
	}
	if err := q.client.Set(ctx, q.jobKey(queued.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save queued job: %w", err)
	}
	return nil
}

func (q *RedisQueue) loadJob(ctx context.Context, jobID string) (*model.QueuedJob, error) {
	data, err := q.client.Get(ctx, q.jobKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queued job %s not found", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("load queued job: %w", err)
	}
	var queued model.QueuedJob
	if err := json.Unmarshal([]byte(data), &queued); err != nil {
		return nil, fmt.Errorf("unmarshal queued job: %w", err)
	}
	return &queued, nil
}

// releaseGuard frees the dedup guard so the repository can be admitted
// again after a failed enqueue or a dropped job.
func (q *RedisQueue) releaseGuard(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, q.guardKey(jobID)).Err(); err != nil {
		q.logger.WarnContext(ctx, "release enqueue guard failed", "job_id", jobID, "error", err)
	}
}

func (q *RedisQueue) dropReservation(ctx context.Context, consumer, jobID string) {
	if consumer == "" {
		return
	}
	if err := q.client.LRem(ctx, q.processingKey(consumer), 1, jobID).Err(); err != nil {
		q.logger.WarnContext(ctx, "drop reservation failed", "job_id", jobID, "consumer", consumer, "error", err)
	}
}
