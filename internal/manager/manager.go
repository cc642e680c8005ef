// Package manager runs the configured audits: once, or on a fixed
// schedule. It owns the per-run lifecycle: tracking rows, plugin
// construction, the run itself, and the watchdog that surfaces a stalled
// run instead of hanging forever.
package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaibhageria/cloudmarker/internal/config"
	"github.com/jaibhageria/cloudmarker/internal/model"
	"github.com/jaibhageria/cloudmarker/internal/pipeline"
	"github.com/jaibhageria/cloudmarker/internal/plugins"
	"github.com/jaibhageria/cloudmarker/internal/store"
	"github.com/jaibhageria/cloudmarker/pkg/utils"
)

const defaultRunTimeout = 15 * time.Minute

// Manager schedules and executes audit runs.
type Manager struct {
	cfg *config.Config
	log *zap.Logger
}

// New returns a manager for the given configuration.
func New(cfg *config.Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log}
}

// Run executes every configured audit, then repeats on the configured
// interval until ctx is cancelled. With run_once set it returns after the
// first pass.
func (m *Manager) Run(ctx context.Context) error {
	if delay := utils.ParseDuration(m.cfg.Schedule.RunDelay, 0); delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	every := utils.ParseDuration(m.cfg.Schedule.Every, 4*time.Hour)
	for {
		m.runAll()
		if m.cfg.Schedule.RunOnce {
			return nil
		}
		m.log.Info("audit pass finished, sleeping", zap.Duration("every", every))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(every):
		}
	}
}

func (m *Manager) runAll() {
	for name, spec := range m.cfg.Audits {
		if spec.Name == "" {
			spec.Name = name
		}
		if _, err := m.RunAudit(spec); err != nil {
			m.log.Error("audit run failed", zap.String("audit", name), zap.Error(err))
		}
	}
}

// RunAudit executes one audit synchronously and returns its run ID. The
// run is tracked in the store from pending to its final status; a run
// exceeding its timeout is marked stalled; the usual cause is a worker
// blocked on a queue whose sentinel never arrived.
func (m *Manager) RunAudit(spec model.AuditSpec) (string, error) {
	runID, audit, err := m.prepare(spec)
	if err != nil {
		return runID, err
	}
	return runID, m.execute(runID, spec, audit)
}

// StartAudit begins an audit run asynchronously and returns its run ID
// right away; progress is visible through the tracking store.
func (m *Manager) StartAudit(spec model.AuditSpec) (string, error) {
	runID, audit, err := m.prepare(spec)
	if err != nil {
		return runID, err
	}
	go func() {
		if err := m.execute(runID, spec, audit); err != nil {
			m.log.Error("audit run failed",
				zap.String("audit", spec.Name), zap.Error(err))
		}
	}()
	return runID, nil
}

// prepare tracks a new pending run and builds its plugin instances.
func (m *Manager) prepare(spec model.AuditSpec) (string, *pipeline.Audit, error) {
	runID := uuid.New().String()
	if err := store.SaveRun(runID, spec.Name, spec); err != nil {
		return "", nil, fmt.Errorf("saving run: %w", err)
	}

	audit, err := plugins.BuildAudit(spec, plugins.Options{
		RunID:     runID,
		OutputDir: m.cfg.OutputDir,
		DBPath:    m.cfg.DB,
	})
	if err != nil {
		store.UpdateRunStatus(runID, "failed")
		store.SaveRunError(runID, model.ErrorDetail{
			Stage:     "setup",
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return runID, nil, err
	}
	audit.Log = m.log
	return runID, audit, nil
}

func (m *Manager) execute(runID string, spec model.AuditSpec, audit *pipeline.Audit) error {
	m.log.Info("audit started",
		zap.String("audit", spec.Name),
		zap.String("run_id", runID),
		zap.Int("clouds", len(audit.Clouds)),
		zap.Int("checks", len(audit.Checks)),
		zap.Int("stores", len(audit.Stores)))
	store.UpdateRunStatus(runID, "running")
	store.SaveRunLog(runID, "audit", "info", "audit started", map[string]interface{}{
		"clouds": len(audit.Clouds),
		"checks": len(audit.Checks),
		"stores": len(audit.Stores),
	})

	done := make(chan *pipeline.Result, 1)
	go func() { done <- audit.Run() }()

	timeout := utils.ParseDuration(spec.Timeout, defaultRunTimeout)
	select {
	case res := <-done:
		return m.finish(runID, spec.Name, res)
	case <-time.After(timeout):
		store.UpdateRunStatus(runID, "stalled")
		store.SaveRunError(runID, model.ErrorDetail{
			Stage:     "audit",
			Message:   fmt.Sprintf("run exceeded %s; a worker may be blocked on a queue that never terminated", timeout),
			Timestamp: time.Now().UTC(),
		})
		return fmt.Errorf("audit %s stalled after %s", spec.Name, timeout)
	}
}

func (m *Manager) finish(runID, name string, res *pipeline.Result) error {
	store.SaveRunMetrics(runID, res.Metrics)
	for _, detail := range res.Errors {
		store.SaveRunError(runID, detail)
	}
	for stage, sm := range res.Metrics.StageMetrics {
		store.SaveRunLog(runID, stage, "info", "stage finished", map[string]interface{}{
			"workers":   sm.WorkerCount,
			"delivered": sm.RecordsDelivered,
			"errors":    sm.ErrorCount,
			"duration":  sm.Duration.String(),
		})
	}

	if res.Failed() {
		store.UpdateRunStatus(runID, "failed")
		m.log.Warn("audit finished with errors",
			zap.String("audit", name),
			zap.String("run_id", runID),
			zap.Int("errors", len(res.Errors)))
		return fmt.Errorf("audit %s finished with %d worker errors", name, len(res.Errors))
	}

	store.UpdateRunStatus(runID, "completed")
	m.log.Info("audit completed",
		zap.String("audit", name),
		zap.String("run_id", runID),
		zap.Int64("records", res.Metrics.RecordsDelivered),
		zap.Int64("events", res.Metrics.EventsDelivered),
		zap.Duration("took", res.Metrics.ProcessingTime))
	return nil
}
