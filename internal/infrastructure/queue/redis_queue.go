package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"video-processor/pkg/constants"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisQueue is a durable named work queue on Redis.
//
// Layout for queue q:
//
//	q:wait       list of waiting job ids (LPUSH in, BRPOPLPUSH out)
//	q:active     list of delivered, unfinished job ids
//	q:leases     zset id -> lease deadline (unix ms)
//	q:job:<id>   hash with data, state, progress, attempts, ...
type RedisQueue struct {
	rdb         *redis.Client
	name        string
	lease       time.Duration
	maxAttempts int
	now         func() time.Time
}

type Option func(*RedisQueue)

func WithLease(d time.Duration) Option {
	return func(q *RedisQueue) {
		if d > 0 {
			q.lease = d
		}
	}
}

// WithMaxAttempts sets how many deliveries a job gets before it stays failed.
func WithMaxAttempts(n int) Option {
	return func(q *RedisQueue) {
		if n > 0 {
			q.maxAttempts = n
		}
	}
}

func NewRedisQueue(rdb *redis.Client, name string, opts ...Option) *RedisQueue {
	if name == "" {
		name = constants.DefaultQueueName
	}
	q := &RedisQueue{
		rdb:         rdb,
		name:        name,
		lease:       15 * time.Minute,
		maxAttempts: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) Name() string { return q.name }

// Lease is how long a delivery may go without a heartbeat before it is
// returned to the wait list.
func (q *RedisQueue) Lease() time.Duration { return q.lease }

func (q *RedisQueue) waitKey() string         { return q.name + ":wait" }
func (q *RedisQueue) activeKey() string       { return q.name + ":active" }
func (q *RedisQueue) leaseKey() string        { return q.name + ":leases" }
func (q *RedisQueue) jobKey(id string) string { return q.name + ":job:" + id }

// Enqueue admits job under a fresh id. Every call is its own job, even when
// an earlier job for the same document and preset is still pending.
func (q *RedisQueue) Enqueue(ctx context.Context, job VideoJob, opts JobOptions) (string, error) {
	data, err := SerializeJob(job)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	removeOnFail := "0"
	if opts.RemoveOnFail {
		removeOnFail = "1"
	}
	fields := map[string]interface{}{
		"name":             job.Preset,
		"data":             data,
		"state":            constants.JobStateWaiting,
		"progress":         "0",
		"attempts":         "0",
		"createdAt":        strconv.FormatInt(q.now().UnixMilli(), 10),
		"removeOnComplete": strconv.FormatInt(int64(opts.RemoveOnCompleteAge/time.Second), 10),
		"removeOnFail":     removeOnFail,
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id), fields)
		pipe.LPush(ctx, q.waitKey(), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return id, nil
}

func (q *RedisQueue) GetStatus(ctx context.Context, id string) (*JobStatus, error) {
	values, err := q.rdb.HGetAll(ctx, q.jobKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrJobNotFound
	}

	status := &JobStatus{
		ID:           id,
		Name:         values["name"],
		State:        values["state"],
		FailedReason: values["failedReason"],
	}
	status.Progress, _ = strconv.ParseFloat(values["progress"], 64)
	status.Attempts, _ = strconv.Atoi(values["attempts"])
	return status, nil
}

// Dequeue blocks up to timeout for the next job. It returns nil, nil when
// nothing arrived.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	id, err := q.rdb.BRPopLPush(ctx, q.waitKey(), q.activeKey(), timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := q.rdb.HGet(ctx, q.jobKey(id), "data").Result()
	if errors.Is(err, redis.Nil) {
		q.rdb.LRem(ctx, q.activeKey(), 1, id)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var attempts *redis.IntCmd
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id), "state", constants.JobStateActive, "processedOn", strconv.FormatInt(q.now().UnixMilli(), 10))
		attempts = pipe.HIncrBy(ctx, q.jobKey(id), "attempts", 1)
		pipe.ZAdd(ctx, q.leaseKey(), &redis.Z{Score: q.leaseDeadline(), Member: id})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("activate job %s: %w", id, err)
	}

	job, err := DeserializeJob(data)
	if err != nil {
		_, _ = q.Fail(ctx, id, Permanent(err))
		return nil, err
	}
	return &Delivery{ID: id, Job: *job, Attempt: int(attempts.Val())}, nil
}

func (q *RedisQueue) leaseDeadline() float64 {
	return float64(q.now().Add(q.lease).UnixMilli())
}

// Touch extends the lease of an active job.
func (q *RedisQueue) Touch(ctx context.Context, id string) error {
	return q.rdb.ZAddXX(ctx, q.leaseKey(), &redis.Z{Score: q.leaseDeadline(), Member: id}).Err()
}

func (q *RedisQueue) UpdateProgress(ctx context.Context, id string, progress float64) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id), "progress", strconv.FormatFloat(progress, 'f', -1, 64))
		pipe.ZAddXX(ctx, q.leaseKey(), &redis.Z{Score: q.leaseDeadline(), Member: id})
		return nil
	})
	return err
}

// Complete marks the job completed and schedules its record for removal.
func (q *RedisQueue) Complete(ctx context.Context, id string) error {
	values, err := q.rdb.HMGet(ctx, q.jobKey(id), "removeOnComplete").Result()
	if err != nil {
		return err
	}
	ttl := constants.DefaultCompletedJobTTL * time.Second
	if s, ok := values[0].(string); ok {
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		}
	}

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(id),
			"state", constants.JobStateCompleted,
			"progress", "100",
			"finishedOn", strconv.FormatInt(q.now().UnixMilli(), 10),
		)
		pipe.LRem(ctx, q.activeKey(), 1, id)
		pipe.ZRem(ctx, q.leaseKey(), id)
		pipe.Expire(ctx, q.jobKey(id), ttl)
		return nil
	})
	return err
}

// Fail records cause. Retryable failures go back to the wait list while
// attempts remain; otherwise the job stays failed.
func (q *RedisQueue) Fail(ctx context.Context, id string, cause error) (retried bool, err error) {
	values, err := q.rdb.HMGet(ctx, q.jobKey(id), "attempts", "removeOnFail").Result()
	if err != nil {
		return false, err
	}
	attempts := 0
	if s, ok := values[0].(string); ok {
		attempts, _ = strconv.Atoi(s)
	}
	removeOnFail := values[1] == "1"

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	retried = !IsPermanent(cause) && attempts < q.maxAttempts

	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.activeKey(), 1, id)
		pipe.ZRem(ctx, q.leaseKey(), id)
		if retried {
			pipe.HSet(ctx, q.jobKey(id), "state", constants.JobStateWaiting, "failedReason", reason)
			pipe.LPush(ctx, q.waitKey(), id)
			return nil
		}
		pipe.HSet(ctx, q.jobKey(id),
			"state", constants.JobStateFailed,
			"failedReason", reason,
			"finishedOn", strconv.FormatInt(q.now().UnixMilli(), 10),
		)
		if removeOnFail {
			pipe.Del(ctx, q.jobKey(id))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return retried, nil
}

// Release hands an interrupted delivery back to the wait list without
// counting it as an attempt.
func (q *RedisQueue) Release(ctx context.Context, id string) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.activeKey(), 1, id)
		pipe.ZRem(ctx, q.leaseKey(), id)
		pipe.HSet(ctx, q.jobKey(id), "state", constants.JobStateWaiting)
		pipe.HIncrBy(ctx, q.jobKey(id), "attempts", -1)
		pipe.RPush(ctx, q.waitKey(), id)
		return nil
	})
	return err
}

// ReapExpired returns jobs whose lease ran out to the wait list. It is safe
// to run from several workers: only the caller that removes the lease moves
// the job.
func (q *RedisQueue) ReapExpired(ctx context.Context) (int, error) {
	ids, err := q.rdb.ZRangeByScore(ctx, q.leaseKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, id := range ids {
		removed, err := q.rdb.ZRem(ctx, q.leaseKey(), id).Result()
		if err != nil {
			return reaped, err
		}
		if removed == 0 {
			continue
		}
		_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, q.activeKey(), 1, id)
			pipe.HSet(ctx, q.jobKey(id), "state", constants.JobStateWaiting)
			pipe.RPush(ctx, q.waitKey(), id)
			return nil
		})
		if err != nil {
			return reaped, err
		}
		reaped++
	}
	return reaped, nil
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
