package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

// item is one slot in a queue: either a record or the end-of-stream
// sentinel. The sentinel is a distinct tagged value, never confusable with
// a legitimate (possibly empty) record.
type item struct {
	rec model.Record
	eos bool
}

// Queue is an unbounded FIFO channel of record-or-sentinel. Many writers,
// one reader: Put never blocks, Get blocks until an item arrives. Records
// enqueued by a single writer are observed by the reader in the order they
// were put; no ordering holds between interleaved writers.
//
// There is no capacity bound and no backpressure: a slow store grows the
// queue, it never stalls the workers writing to it.
type Queue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	buf      []item
	head     int
	puts     int64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Put appends a record to the queue and wakes the reader.
func (q *Queue) Put(rec model.Record) {
	q.mu.Lock()
	q.buf = append(q.buf, item{rec: rec})
	q.mu.Unlock()
	atomic.AddInt64(&q.puts, 1)
	q.nonEmpty.Signal()
}

// PutSentinel appends the end-of-stream sentinel. The orchestrator pushes
// exactly one sentinel per queue, after every writer feeding the queue has
// terminated.
func (q *Queue) PutSentinel() {
	q.mu.Lock()
	q.buf = append(q.buf, item{eos: true})
	q.mu.Unlock()
	q.nonEmpty.Signal()
}

// Get removes and returns the next record. It blocks while the queue is
// empty. The second return is false once the sentinel is observed; the
// caller must stop reading at that point.
func (q *Queue) Get() (model.Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head >= len(q.buf) {
		q.nonEmpty.Wait()
	}
	it := q.buf[q.head]
	q.head++
	q.maybeCompact()
	if it.eos {
		return nil, false
	}
	return it.rec, true
}

// Len returns the number of items currently buffered, sentinel included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf) - q.head
}

// Puts returns the total number of records ever put into the queue. The
// orchestrator reads this after a run for delivery metrics.
func (q *Queue) Puts() int64 {
	return atomic.LoadInt64(&q.puts)
}

// maybeCompact drops the consumed prefix once it dominates the buffer, so
// a long-lived queue does not pin memory for records already read.
// Caller must hold mu.
func (q *Queue) maybeCompact() {
	if q.head < 1024 || q.head*2 < len(q.buf) {
		return
	}
	n := copy(q.buf, q.buf[q.head:])
	q.buf = q.buf[:n]
	q.head = 0
}
