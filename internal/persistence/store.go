package persistence

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/analysis"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/assignment"
	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
)

// Store is the typed view over the three bundles.
type Store struct {
	manager *Manager
}

// NewStore wraps a Manager.
func NewStore(manager *Manager) *Store {
	return &Store{manager: manager}
}

// Manager exposes the underlying bundle manager.
func (s *Store) Manager() *Manager { return s.manager }

// SaveAnalysis persists a full analysis run keyed by vehicle tag.
func (s *Store) SaveAnalysis(result *analysis.Result) error {
	byVehicle := make(map[string]*analysis.VehicleAnalysis, len(result.Vehicles))
	totalCustomers := 0
	for _, v := range result.Vehicles {
		byVehicle[v.Vehicle] = v
		totalCustomers += v.CustomerCount
	}

	metadata := map[string]any{
		"vehicle_count":  len(result.Vehicles),
		"customer_count": totalCustomers,
		"generated_at":   result.GeneratedAt.Format(time.RFC3339),
	}
	return s.manager.Save(BundleAnalysis, map[string]any{
		"analysis_results": byVehicle,
	}, metadata)
}

// LoadAnalysis restores the last persisted run. A missing bundle yields
// (nil, nil) so the caller starts without results.
func (s *Store) LoadAnalysis() (*analysis.Result, error) {
	fields, found, err := s.manager.Load(BundleAnalysis)
	if err != nil || !found {
		return nil, err
	}

	var byVehicle map[string]*analysis.VehicleAnalysis
	if err := json.Unmarshal(fields["analysis_results"], &byVehicle); err != nil {
		return nil, apperrors.NewPersistence("load", "analysis payload is malformed", err)
	}

	result := &analysis.Result{GeneratedAt: saveDate(fields)}
	for _, v := range byVehicle {
		result.Vehicles = append(result.Vehicles, v)
	}
	sort.Slice(result.Vehicles, func(i, j int) bool {
		return result.Vehicles[i].Vehicle < result.Vehicles[j].Vehicle
	})
	return result, nil
}

// SaveAssignments persists the assignment store snapshot.
func (s *Store) SaveAssignments(snap assignment.Snapshot) error {
	return s.manager.Save(BundleAssignments, map[string]any{
		"assignments":        snap.Assignments,
		"assignment_history": snap.History,
		"total_assignments":  len(snap.Assignments),
	}, nil)
}

// LoadAssignments restores the assignment snapshot; a missing bundle yields
// an empty one.
func (s *Store) LoadAssignments() (assignment.Snapshot, error) {
	snap := assignment.Snapshot{Assignments: map[string]assignment.Record{}}

	fields, found, err := s.manager.Load(BundleAssignments)
	if err != nil || !found {
		return snap, err
	}

	if err := json.Unmarshal(fields["assignments"], &snap.Assignments); err != nil {
		return snap, apperrors.NewPersistence("load", "assignments payload is malformed", err)
	}
	if raw, present := fields["assignment_history"]; present {
		if err := json.Unmarshal(raw, &snap.History); err != nil {
			return snap, apperrors.NewPersistence("load", "assignment history is malformed", err)
		}
	}
	return snap, nil
}

// SaveSettings persists the settings bundle.
func (s *Store) SaveSettings(settings Settings) error {
	return s.manager.Save(BundleSettings, map[string]any{
		"settings": settings,
	}, nil)
}

// LoadSettings returns the persisted settings, falling back to the defaults
// field by field absent a bundle.
func (s *Store) LoadSettings() (Settings, error) {
	settings := DefaultSettings()

	fields, found, err := s.manager.Load(BundleSettings)
	if err != nil || !found {
		return settings, err
	}
	if err := json.Unmarshal(fields["settings"], &settings); err != nil {
		return DefaultSettings(), apperrors.NewPersistence("load", "settings payload is malformed", err)
	}
	return settings, nil
}

func saveDate(fields map[string]json.RawMessage) time.Time {
	var stamp string
	if err := json.Unmarshal(fields["save_date"], &stamp); err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
