// Package services wires the report pipeline, the vehicle analyzer, the
// assignment store and the persistence layer into one long-lived facade for
// the application shell.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/analysis"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/assignment"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/config"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/operations"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/persistence"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/report"
)

// AnalysisService owns the engine state across analysis runs. All exported
// methods are safe for concurrent use; result accessors return deep copies so
// callers cannot mutate the shared state.
type AnalysisService struct {
	mu     sync.RWMutex
	logger *slog.Logger

	processor   *report.Processor
	store       *persistence.Store
	assignments *assignment.Store
	runner      *operations.Runner

	result       *analysis.Result
	lastAnalysis time.Time
}

// NewAnalysisService builds the facade and restores the persisted state:
// the last analysis run, the assignment snapshot and the settings bundle.
func NewAnalysisService(logger *slog.Logger, cfg *config.Config) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "analysis_service"))

	manager, err := persistence.NewManager(logger, cfg.Paths.DataDir, persistence.Options{
		MaxBackups:     cfg.Storage.MaxBackupCount,
		CacheTTL:       cfg.CacheTTL(),
		StrictChecksum: cfg.Storage.StrictChecksum,
	})
	if err != nil {
		return nil, err
	}
	store := persistence.NewStore(manager)

	svc := &AnalysisService{
		logger: logger,
		processor: report.NewProcessor(logger, report.ProcessorConfig{
			MaxFileSize:    cfg.MaxFileSizeBytes(),
			HeaderScanRows: cfg.Analysis.HeaderScanRows,
		}),
		store:       store,
		assignments: assignment.NewStore(logger, cfg.Storage.HistoryLimit),
		runner:      operations.NewRunner(logger),
	}

	snap, err := store.LoadAssignments()
	if err != nil {
		return nil, err
	}
	svc.assignments.Restore(snap)

	result, err := store.LoadAnalysis()
	if err != nil {
		return nil, err
	}
	if result != nil {
		svc.result = result
		svc.lastAnalysis = result.GeneratedAt
		logger.Info("previous analysis restored",
			slog.Int("vehicle_count", len(result.Vehicles)))
	}

	return svc, nil
}

// RunAnalysis processes the workbook at path and analyzes every vehicle in
// the background. It returns the run ID immediately; completion and progress
// arrive on Events. Only one run may be in flight.
func (s *AnalysisService) RunAnalysis(ctx context.Context, path string) (string, error) {
	return s.runner.Start(ctx, func(ctx context.Context, progress func(float64, string)) (*analysis.Result, error) {
		progress(0, "rapor okunuyor")

		sheet, err := s.processor.Process(path)
		if err != nil {
			return nil, err
		}

		analyzer, err := analysis.NewAnalyzer(s.logger, sheet)
		if err != nil {
			return nil, err
		}

		result, err := analyzer.Analyze(ctx, func(done, total int) bool {
			progress(float64(done)/float64(total), fmt.Sprintf("araç %d/%d", done, total))
			return true
		})
		if err != nil {
			return nil, err
		}

		progress(1, "sonuçlar kaydediliyor")
		if err := s.store.SaveAnalysis(result); err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.result = result
		s.lastAnalysis = result.GeneratedAt
		s.mu.Unlock()
		return result, nil
	})
}

// RunAnalysisSync runs the pipeline in the calling goroutine, draining the
// event queue itself. Used by the CLI where background polling has no value.
func (s *AnalysisService) RunAnalysisSync(ctx context.Context, path string) (*analysis.Result, error) {
	runID, err := s.RunAnalysis(ctx, path)
	if err != nil {
		return nil, err
	}
	// Skip queue residue from earlier runs nobody drained.
	for event := range s.runner.Events() {
		if !event.Terminal() || event.RunID != runID {
			continue
		}
		if event.Err != nil {
			return nil, event.Err
		}
		return event.Result, nil
	}
	return nil, fmt.Errorf("event queue closed without a terminal event")
}

// CancelAnalysis requests cooperative cancellation of the in-flight run.
func (s *AnalysisService) CancelAnalysis() { s.runner.Cancel() }

// Events is the queue the shell polls for progress and terminal events.
func (s *AnalysisService) Events() <-chan operations.Event { return s.runner.Events() }

// AnalysisRunning reports whether a run is in flight.
func (s *AnalysisService) AnalysisRunning() bool { return s.runner.Running() }

// Results returns a deep copy of the last completed analysis, or nil when
// none has run yet.
func (s *AnalysisService) Results() *analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Clone()
}

// VehicleResult returns a deep copy of one vehicle's portfolio.
func (s *AnalysisService) VehicleResult(tag string) (*analysis.VehicleAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil, false
	}
	v, ok := s.result.ByVehicle()[tag]
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// LastAnalysisTime returns when the last completed run was generated.
func (s *AnalysisService) LastAnalysisTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAnalysis
}

// AssignVehicle binds a vehicle to a responsible person and persists the
// store.
func (s *AnalysisService) AssignVehicle(vehicle string, info assignment.Info) (assignment.Record, error) {
	record, err := s.assignments.Assign(vehicle, info)
	if err != nil {
		return assignment.Record{}, err
	}
	return record, s.persistAssignments()
}

// UpdateAssignment patches an existing assignment and persists the store.
func (s *AnalysisService) UpdateAssignment(vehicle string, patch assignment.Patch) (assignment.Record, error) {
	record, err := s.assignments.Update(vehicle, patch)
	if err != nil {
		return assignment.Record{}, err
	}
	return record, s.persistAssignments()
}

// UnassignVehicle removes a binding, recording the reason, and persists the
// store.
func (s *AnalysisService) UnassignVehicle(vehicle, reason string) error {
	if err := s.assignments.Unassign(vehicle, reason); err != nil {
		return err
	}
	return s.persistAssignments()
}

// Assignment returns the record bound to a vehicle.
func (s *AnalysisService) Assignment(vehicle string) (assignment.Record, error) {
	return s.assignments.Get(vehicle)
}

// Assignments lists every binding sorted by vehicle tag.
func (s *AnalysisService) Assignments() []assignment.Record {
	return s.assignments.All()
}

// AssignmentHistory returns the audit trail, newest first.
func (s *AnalysisService) AssignmentHistory(vehicle string, limit int) []assignment.HistoryEvent {
	return s.assignments.History(vehicle, limit)
}

// Workloads groups assignments by responsible person.
func (s *AnalysisService) Workloads() []assignment.Workload {
	return s.assignments.Workloads()
}

// SearchAssignments finds bindings matching the term.
func (s *AnalysisService) SearchAssignments(term string) []assignment.Record {
	return s.assignments.Search(term)
}

func (s *AnalysisService) persistAssignments() error {
	return s.store.SaveAssignments(s.assignments.Snapshot())
}

// Settings returns the persisted settings, falling back to the defaults.
func (s *AnalysisService) Settings() (persistence.Settings, error) {
	return s.store.LoadSettings()
}

// SaveSettings persists the settings bundle.
func (s *AnalysisService) SaveSettings(settings persistence.Settings) error {
	return s.store.SaveSettings(settings)
}

// Export writes all bundles into one aggregate file.
func (s *AnalysisService) Export(path string) error {
	return s.store.Manager().Export(path)
}

// Import replays an aggregate export, taking a full backup first.
func (s *AnalysisService) Import(ctx context.Context, path string) (*persistence.ImportReport, error) {
	rep, err := s.store.Manager().Import(ctx, path)
	if err != nil {
		return nil, err
	}

	// The on-disk bundles changed underneath the in-memory state.
	snap, err := s.store.LoadAssignments()
	if err != nil {
		return rep, err
	}
	s.assignments.Restore(snap)

	result, err := s.store.LoadAnalysis()
	if err != nil {
		return rep, err
	}
	s.mu.Lock()
	s.result = result
	if result != nil {
		s.lastAnalysis = result.GeneratedAt
	}
	s.mu.Unlock()
	return rep, nil
}
