package pipeline

import (
	"fmt"

	"go.uber.org/zap"
)

// Workers are the concurrent units of the pipeline. Each worker owns one
// plugin instance and pumps records between queues; workers share no
// memory and communicate only through queues. A worker terminates on
// sentinel observation (cloud workers: on stream exhaustion) or on a
// plugin error, which is returned to the orchestrator and terminates that
// worker only.
//
// No worker pushes the end-of-stream sentinel into its own output queues.
// A queue may be fed by several workers, so only the orchestrator, after
// joining every writer, knows when a queue's stream is truly over.

// CloudWorker drains the cloud plugin's record stream and replicates each
// record into every output queue, in the order the queues were configured.
func CloudWorker(name string, cloud Cloud, outputs []*Queue, log *zap.Logger) error {
	log.Info("worker started", zap.String("worker", name))
	for rec := range cloud.Read() {
		for _, q := range outputs {
			q.Put(rec)
		}
	}
	if err := cloud.Done(); err != nil {
		return fmt.Errorf("%s: cleanup failed: %w", name, err)
	}
	log.Info("worker stopped", zap.String("worker", name))
	return nil
}

// CheckWorker reads records from its input queue, evaluates each with the
// check plugin, and replicates every yielded event record into every
// output queue. On sentinel it calls Done exactly once and terminates; the
// sentinel is consumed, not forwarded.
func CheckWorker(name string, check Check, input *Queue, outputs []*Queue, log *zap.Logger) error {
	log.Info("worker started", zap.String("worker", name))
	for {
		rec, ok := input.Get()
		if !ok {
			break
		}
		events, err := check.Eval(rec)
		if err != nil {
			return fmt.Errorf("%s: eval failed: %w", name, err)
		}
		for _, ev := range events {
			for _, q := range outputs {
				q.Put(ev)
			}
		}
	}
	if err := check.Done(); err != nil {
		return fmt.Errorf("%s: cleanup failed: %w", name, err)
	}
	log.Info("worker stopped", zap.String("worker", name))
	return nil
}

// StoreWorker reads records from its input queue and passes each to the
// store plugin. On sentinel it calls Done exactly once and terminates.
func StoreWorker(name string, store Store, input *Queue, log *zap.Logger) error {
	log.Info("worker started", zap.String("worker", name))
	for {
		rec, ok := input.Get()
		if !ok {
			break
		}
		if err := store.Write(rec); err != nil {
			return fmt.Errorf("%s: write failed: %w", name, err)
		}
	}
	if err := store.Done(); err != nil {
		return fmt.Errorf("%s: cleanup failed: %w", name, err)
	}
	log.Info("worker stopped", zap.String("worker", name))
	return nil
}
