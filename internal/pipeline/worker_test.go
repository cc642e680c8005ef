package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

// sliceCloud replays a fixed record list.
type sliceCloud struct {
	recs    []model.Record
	doneErr error
	done    int
}

func (c *sliceCloud) Read() <-chan model.Record {
	ch := make(chan model.Record)
	go func() {
		defer close(ch)
		for _, r := range c.recs {
			ch <- r
		}
	}()
	return ch
}

func (c *sliceCloud) Done() error {
	c.done++
	return c.doneErr
}

// echoCheck yields each input n times; evalErr, when set, fails every eval.
type echoCheck struct {
	n       int
	evalErr error
	done    int
}

func (c *echoCheck) Eval(rec model.Record) ([]model.Record, error) {
	if c.evalErr != nil {
		return nil, c.evalErr
	}
	out := make([]model.Record, c.n)
	for i := range out {
		out[i] = rec
	}
	return out, nil
}

func (c *echoCheck) Done() error {
	c.done++
	return nil
}

// captureStore records every write.
type captureStore struct {
	recs     []model.Record
	writeErr error
	done     int
}

func (s *captureStore) Write(rec model.Record) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *captureStore) Done() error {
	s.done++
	return nil
}

func drain(q *Queue) []model.Record {
	var out []model.Record
	for {
		r, ok := q.Get()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func refs(recs []model.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r["com"].String("reference")
	}
	return out
}

func TestCloudWorker_FanOutReplication(t *testing.T) {
	cloud := &sliceCloud{recs: []model.Record{rec(0), rec(1), rec(2)}}
	q1, q2, q3 := NewQueue(), NewQueue(), NewQueue()

	err := CloudWorker("cloud-test", cloud, []*Queue{q1, q2, q3}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, cloud.done)

	want := []string{"r0", "r1", "r2"}
	for _, q := range []*Queue{q1, q2, q3} {
		q.PutSentinel()
		assert.Equal(t, want, refs(drain(q)), "each output queue gets every record in order")
	}
}

func TestCloudWorker_EmptyStreamStillCleansUp(t *testing.T) {
	cloud := &sliceCloud{}
	err := CloudWorker("cloud-empty", cloud, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, cloud.done)
}

func TestCloudWorker_DoneFailurePropagates(t *testing.T) {
	cloud := &sliceCloud{doneErr: errors.New("connection leak")}
	err := CloudWorker("cloud-bad", cloud, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cloud-bad")
	assert.Contains(t, err.Error(), "cleanup failed")
}

func TestCheckWorker_SentinelCallsDoneOnce(t *testing.T) {
	check := &echoCheck{n: 1}
	in := NewQueue()
	in.Put(rec(1))
	in.PutSentinel()
	// Items erroneously present after the sentinel must never be read.
	in.Put(rec(99))

	err := CheckWorker("check-test", check, in, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, check.done, "Done must be called exactly once")
}

func TestCheckWorker_FanOutEvents(t *testing.T) {
	check := &echoCheck{n: 2}
	in := NewQueue()
	in.Put(rec(1))
	in.Put(rec(2))
	in.PutSentinel()
	q1, q2 := NewQueue(), NewQueue()

	err := CheckWorker("check-test", check, in, []*Queue{q1, q2}, zap.NewNop())
	require.NoError(t, err)

	want := []string{"r1", "r1", "r2", "r2"}
	for _, q := range []*Queue{q1, q2} {
		q.PutSentinel()
		assert.Equal(t, want, refs(drain(q)))
	}
}

func TestCheckWorker_EvalErrorTerminatesWithoutCleanup(t *testing.T) {
	check := &echoCheck{evalErr: fmt.Errorf("parsing min_tls_version: %w", errors.New("invalid syntax"))}
	in := NewQueue()
	in.Put(rec(1))
	in.PutSentinel()

	err := CheckWorker("check-bad", check, in, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eval failed")
	assert.Equal(t, 0, check.done, "a crashed worker does not reach cleanup")
}

func TestStoreWorker_WritesUntilSentinel(t *testing.T) {
	store := &captureStore{}
	in := NewQueue()
	in.Put(rec(1))
	in.Put(rec(2))
	in.Put(rec(3))
	in.PutSentinel()

	err := StoreWorker("store-test", store, in, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, refs(store.recs))
	assert.Equal(t, 1, store.done)
}

func TestStoreWorker_WriteErrorTerminatesWorker(t *testing.T) {
	store := &captureStore{writeErr: errors.New("disk full")}
	in := NewQueue()
	in.Put(rec(1))
	in.PutSentinel()

	err := StoreWorker("store-bad", store, in, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
	assert.Equal(t, 0, store.done)
}
