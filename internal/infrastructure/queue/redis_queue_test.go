package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-processor/internal/domain/entities"
	"video-processor/pkg/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, opts ...Option) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb, "test-queue", opts...), mr
}

func sampleJob() VideoJob {
	return VideoJob{Collection: "media", ID: "42", Preset: "hd720", Crop: &entities.CropRect{Width: 0.5, Height: 0.5}}
}

func TestEnqueueAndStatus(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{RemoveOnCompleteAge: time.Minute})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateWaiting, status.State)
	assert.Equal(t, 0.0, status.Progress)
	assert.Equal(t, "hd720", status.Name)

	_, err = q.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestDequeueActivatesJob(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, 1, d.Attempt)
	assert.Equal(t, DocumentID("42"), d.Job.ID)
	require.NotNil(t, d.Job.Crop)
	assert.Equal(t, 0.5, d.Job.Crop.Width)

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateActive, status.State)

	require.NoError(t, q.UpdateProgress(ctx, id, 42.5))
	status, err = q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 42.5, status.Progress)
}

func TestDequeueTimesOutEmpty(t *testing.T) {
	q, _ := newTestQueue(t)
	d, err := q.Dequeue(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestCompleteRetainsBriefly(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{RemoveOnCompleteAge: 60 * time.Second})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, id))

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateCompleted, status.State)
	assert.Equal(t, 100.0, status.Progress)

	mr.FastForward(61 * time.Second)
	_, err = q.GetStatus(ctx, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestFailRetainsFailedJobs(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{RemoveOnCompleteAge: time.Minute})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	retried, err := q.Fail(ctx, id, errors.New("ffmpeg exited with code 1"))
	require.NoError(t, err)
	assert.False(t, retried)

	mr.FastForward(24 * time.Hour)
	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateFailed, status.State)
	assert.Equal(t, "ffmpeg exited with code 1", status.FailedReason)
}

func TestFailRetriesUntilMaxAttempts(t *testing.T) {
	q, _ := newTestQueue(t, WithMaxAttempts(2))
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	retried, err := q.Fail(ctx, id, errors.New("transient"))
	require.NoError(t, err)
	assert.True(t, retried)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Attempt)

	retried, err = q.Fail(ctx, id, errors.New("transient"))
	require.NoError(t, err)
	assert.False(t, retried)
}

func TestFailPermanentSkipsRetry(t *testing.T) {
	q, _ := newTestQueue(t, WithMaxAttempts(5))
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	retried, err := q.Fail(ctx, id, Permanent(errors.New("unknown preset")))
	require.NoError(t, err)
	assert.False(t, retried)
}

func TestFailRemoveOnFail(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{RemoveOnFail: true})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	_, err = q.Fail(ctx, id, errors.New("boom"))
	require.NoError(t, err)

	_, err = q.GetStatus(ctx, id)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestEnqueueSameJobTwiceAdmitsBoth(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	d1, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d1)
	d2, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d2)
	assert.Equal(t, first, d1.ID)
	assert.Equal(t, second, d2.ID)
}

func TestReapExpiredRequeuesStaleLeases(t *testing.T) {
	q, _ := newTestQueue(t, WithLease(time.Minute))
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	n, err := q.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	now = now.Add(2 * time.Minute)
	n, err = q.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateWaiting, status.State)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, 2, d.Attempt)
}

func TestTouchKeepsLeaseAlive(t *testing.T) {
	q, _ := newTestQueue(t, WithLease(time.Minute))
	ctx := context.Background()
	now := time.Now()
	q.now = func() time.Time { return now }

	_, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	now = now.Add(50 * time.Second)
	require.NoError(t, q.Touch(ctx, d.ID))
	now = now.Add(50 * time.Second)

	n, err := q.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReleaseDoesNotConsumeAttempt(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, sampleJob(), JobOptions{})
	require.NoError(t, err)
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Release(ctx, id))

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Attempt)
}
