package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaibhageria/cloudmarker/internal/model"
)

// NamedCloud, NamedCheck and NamedStore bind a worker display name to a
// plugin instance of one capability.
type NamedCloud struct {
	Name  string
	Cloud Cloud
}

type NamedCheck struct {
	Name  string
	Check Check
}

type NamedStore struct {
	Name  string
	Store Store
}

// Audit owns the topology of one audit run: every cloud fans out to the
// input queue of every check and every store, and every check fans out to
// the input queue of every store. Store queues therefore have multiple
// writers; check queues are fed by clouds only.
type Audit struct {
	Name   string
	Clouds []NamedCloud
	Checks []NamedCheck
	Stores []NamedStore
	Log    *zap.Logger
}

// Result reports what a run did: per-stage timings and delivery counts,
// and every worker failure that occurred.
type Result struct {
	Metrics model.AuditMetrics
	Errors  []model.ErrorDetail
}

// Failed reports whether any worker terminated with an error.
func (r *Result) Failed() bool { return len(r.Errors) > 0 }

// Run wires the queues, starts one worker per plugin instance, and applies
// the sentinel-injection discipline: a queue receives exactly one sentinel,
// and only after every worker writing to it has been joined. Clouds are
// joined first, then the check queues are terminated; checks are joined,
// then the store queues are terminated; finally the stores are joined.
//
// A worker error terminates that worker alone. Sentinels are still pushed
// after the join, so the remaining workers drain and stop instead of
// blocking forever on a queue that will never end.
func (a *Audit) Run() *Result {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}

	checkQueues := make([]*Queue, len(a.Checks))
	for i := range a.Checks {
		checkQueues[i] = NewQueue()
	}
	storeQueues := make([]*Queue, len(a.Stores))
	for i := range a.Stores {
		storeQueues[i] = NewQueue()
	}

	// Clouds feed checks and stores alike; checks feed stores only.
	cloudOutputs := make([]*Queue, 0, len(checkQueues)+len(storeQueues))
	cloudOutputs = append(cloudOutputs, checkQueues...)
	cloudOutputs = append(cloudOutputs, storeQueues...)

	res := &Result{Metrics: model.AuditMetrics{StageMetrics: make(map[string]model.StageMetrics)}}
	var mu sync.Mutex
	fail := func(stage, worker string, err error) {
		mu.Lock()
		res.Errors = append(res.Errors, model.ErrorDetail{
			Stage:     stage,
			Worker:    worker,
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		mu.Unlock()
		log.Error("worker failed",
			zap.String("stage", stage),
			zap.String("worker", worker),
			zap.Error(err))
	}

	start := time.Now()

	var clouds, checks, stores errgroup.Group
	for _, nc := range a.Clouds {
		nc := nc
		clouds.Go(func() error {
			err := CloudWorker(nc.Name, nc.Cloud, cloudOutputs, log)
			if err != nil {
				fail("clouds", nc.Name, err)
			}
			return err
		})
	}
	for i, nk := range a.Checks {
		nk, in := nk, checkQueues[i]
		checks.Go(func() error {
			err := CheckWorker(nk.Name, nk.Check, in, storeQueues, log)
			if err != nil {
				fail("checks", nk.Name, err)
			}
			return err
		})
	}
	for i, ns := range a.Stores {
		ns, in := ns, storeQueues[i]
		stores.Go(func() error {
			err := StoreWorker(ns.Name, ns.Store, in, log)
			if err != nil {
				fail("stores", ns.Name, err)
			}
			return err
		})
	}

	cloudStart := start
	_ = clouds.Wait()
	for _, q := range checkQueues {
		q.PutSentinel()
	}
	cloudEnd := time.Now()

	// Cloud deliveries, counted on a queue only clouds write to: a check
	// queue when there are checks, a store queue otherwise. Store queues
	// cannot be sampled here because running checks may already have put
	// events into them.
	var rawCount int64
	if len(checkQueues) > 0 {
		rawCount = checkQueues[0].Puts()
	} else if len(storeQueues) > 0 {
		rawCount = storeQueues[0].Puts()
	}

	_ = checks.Wait()
	for _, q := range storeQueues {
		q.PutSentinel()
	}
	checkEnd := time.Now()

	_ = stores.Wait()
	end := time.Now()

	// Every writer of the store queues has been joined, so their put
	// counters are final: cloud records plus check events.
	total := rawCount
	if len(storeQueues) > 0 {
		total = storeQueues[0].Puts()
	}

	res.Metrics.RecordsDelivered = rawCount
	res.Metrics.EventsDelivered = total - rawCount
	res.Metrics.ErrorCount = int64(len(res.Errors))
	res.Metrics.ProcessingTime = end.Sub(start)
	res.Metrics.StageMetrics["clouds"] = stageMetrics("clouds", cloudStart, cloudEnd, len(a.Clouds), rawCount, res.errorsIn("clouds"))
	res.Metrics.StageMetrics["checks"] = stageMetrics("checks", cloudStart, checkEnd, len(a.Checks), total-rawCount, res.errorsIn("checks"))
	res.Metrics.StageMetrics["stores"] = stageMetrics("stores", cloudStart, end, len(a.Stores), total, res.errorsIn("stores"))
	return res
}

func (r *Result) errorsIn(stage string) int64 {
	var n int64
	for _, e := range r.Errors {
		if e.Stage == stage {
			n++
		}
	}
	return n
}

func stageMetrics(name string, start, end time.Time, workers int, delivered, errs int64) model.StageMetrics {
	return model.StageMetrics{
		StageName:        name,
		StartTime:        start,
		EndTime:          end,
		Duration:         end.Sub(start),
		WorkerCount:      workers,
		RecordsDelivered: delivered,
		ErrorCount:       errs,
	}
}
