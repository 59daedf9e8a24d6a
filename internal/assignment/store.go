package assignment

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/alibedirhan/Bup-Yonetim-sub000/internal/errors"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/turkish"
)

// DefaultHistoryLimit caps the audit trail when no limit is configured.
const DefaultHistoryLimit = 1000

var (
	personNamePattern = regexp.MustCompile(`^[\p{L}][\p{L} .'-]*$`)

	// Turkish numbers after stripping formatting: optional +90/90/0 prefix,
	// then a 10-digit mobile (5xx) or landline (2xx/3xx/4xx) number.
	trPhonePattern = regexp.MustCompile(`^(?:90|0)?(?:5\d{9}|[234]\d{9})$`)

	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "")
)

// Store keeps the vehicle-to-person assignments and their audit trail.
// All methods are safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	logger       *slog.Logger
	validate     *validator.Validate
	assignments  map[string]Record
	history      []HistoryEvent
	historyLimit int
	now          func() time.Time
}

// NewStore builds an empty store. historyLimit <= 0 falls back to
// DefaultHistoryLimit.
func NewStore(logger *slog.Logger, historyLimit int) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("person_name", func(fl validator.FieldLevel) bool {
		return validPersonName(fl.Field().String())
	})
	_ = v.RegisterValidation("tr_phone", func(fl validator.FieldLevel) bool {
		return validTurkishPhone(fl.Field().String())
	})

	return &Store{
		logger:       logger.With(slog.String("component", "assignment")),
		validate:     v,
		assignments:  make(map[string]Record),
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

func validPersonName(name string) bool {
	name = strings.TrimSpace(name)
	if !personNamePattern.MatchString(name) {
		return false
	}
	letters := 0
	for _, r := range name {
		if r != ' ' && r != '.' && r != '\'' && r != '-' {
			letters++
		}
	}
	return letters >= 2
}

func validTurkishPhone(phone string) bool {
	return trPhonePattern.MatchString(phoneStripper.Replace(strings.TrimSpace(phone)))
}

// normalizeVehicle accepts "6", "06" or "01".."99" and returns the
// zero-padded two-digit tag.
func normalizeVehicle(vehicle string) (string, error) {
	trimmed := strings.TrimSpace(vehicle)
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 || n > 99 {
		return "", apperrors.NewInvalidInput("vehicle", fmt.Sprintf("%q is not a vehicle number between 1 and 99", vehicle))
	}
	return fmt.Sprintf("%02d", n), nil
}

func (s *Store) validateInfo(info Info) error {
	if err := s.validate.Struct(info); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
			field := strings.ToLower(verrs[0].Field())
			return apperrors.NewInvalidInput(field, validationMessage(verrs[0]))
		}
		return apperrors.NewInvalidInput("assignment", err.Error())
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "email":
		return "not a valid e-mail address"
	case "tr_phone":
		return "not a valid Turkish phone number"
	case "person_name":
		return "must contain at least two letters"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Assign binds a vehicle to a responsible person. Re-assigning an already
// bound vehicle overwrites it and records a change event carrying the
// previous record.
func (s *Store) Assign(vehicle string, info Info) (Record, error) {
	tag, err := normalizeVehicle(vehicle)
	if err != nil {
		return Record{}, err
	}
	if err := s.validateInfo(info); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	record := Record{
		Vehicle:     tag,
		Responsible: strings.TrimSpace(info.Responsible),
		Email:       strings.TrimSpace(info.Email),
		Phone:       strings.TrimSpace(info.Phone),
		Department:  strings.TrimSpace(info.Department),
		Notes:       info.Notes,
		Status:      StatusActive,
		AssignedAt:  now,
		UpdatedAt:   now,
	}

	if previous, exists := s.assignments[tag]; exists {
		record.AssignedAt = previous.AssignedAt
		s.appendEvent(HistoryEvent{
			Vehicle:  tag,
			Action:   ActionChanged,
			Reason:   "reassigned",
			Snapshot: previous,
		})
	} else {
		s.appendEvent(HistoryEvent{
			Vehicle:  tag,
			Action:   ActionAssigned,
			Snapshot: record,
		})
	}

	s.assignments[tag] = record
	s.logger.Info("vehicle assigned",
		slog.String("vehicle", tag),
		slog.String("responsible", record.Responsible))
	return record, nil
}

// Update applies a partial change to an existing assignment.
func (s *Store) Update(vehicle string, patch Patch) (Record, error) {
	tag, err := normalizeVehicle(vehicle)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.assignments[tag]
	if !exists {
		return Record{}, apperrors.NewNotFound(tag)
	}

	record := previous
	if patch.Responsible != nil {
		record.Responsible = strings.TrimSpace(*patch.Responsible)
	}
	if patch.Email != nil {
		record.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Phone != nil {
		record.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Department != nil {
		record.Department = strings.TrimSpace(*patch.Department)
	}
	if patch.Notes != nil {
		record.Notes = *patch.Notes
	}
	if patch.Status != nil {
		if *patch.Status != StatusActive && *patch.Status != StatusInactive {
			return Record{}, apperrors.NewInvalidInput("status", fmt.Sprintf("unknown status %q", *patch.Status))
		}
		record.Status = *patch.Status
	}

	if err := s.validateInfo(Info{
		Responsible: record.Responsible,
		Email:       record.Email,
		Phone:       record.Phone,
		Department:  record.Department,
		Notes:       record.Notes,
	}); err != nil {
		return Record{}, err
	}

	record.UpdatedAt = s.now()
	s.appendEvent(HistoryEvent{
		Vehicle:  tag,
		Action:   ActionChanged,
		Snapshot: previous,
	})
	s.assignments[tag] = record

	s.logger.Info("assignment updated", slog.String("vehicle", tag))
	return record, nil
}

// Unassign removes the binding of a vehicle, keeping its last record and
// the removal reason in the history.
func (s *Store) Unassign(vehicle, reason string) error {
	tag, err := normalizeVehicle(vehicle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.assignments[tag]
	if !exists {
		return apperrors.NewNotFound(tag)
	}

	delete(s.assignments, tag)
	s.appendEvent(HistoryEvent{
		Vehicle:  tag,
		Action:   ActionRemoved,
		Reason:   strings.TrimSpace(reason),
		Snapshot: record,
	})

	s.logger.Info("vehicle unassigned", slog.String("vehicle", tag))
	return nil
}

// Get returns the assignment of a vehicle.
func (s *Store) Get(vehicle string) (Record, error) {
	tag, err := normalizeVehicle(vehicle)
	if err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.assignments[tag]
	if !exists {
		return Record{}, apperrors.NewNotFound(tag)
	}
	return record, nil
}

// All returns a copy of every assignment, sorted by vehicle tag.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.assignments))
	for _, r := range s.assignments {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Vehicle < records[j].Vehicle
	})
	return records
}

// History returns the audit trail, newest first. vehicle filters to one
// vehicle when non-empty; limit caps the result when positive.
func (s *Store) History(vehicle string, limit int) []HistoryEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tag := ""
	if strings.TrimSpace(vehicle) != "" {
		normalized, err := normalizeVehicle(vehicle)
		if err != nil {
			return nil
		}
		tag = normalized
	}

	var events []HistoryEvent
	for i := len(s.history) - 1; i >= 0; i-- {
		if tag != "" && s.history[i].Vehicle != tag {
			continue
		}
		events = append(events, s.history[i])
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events
}

// Workloads groups the assignments by responsible person, sorted by
// descending vehicle count, ties broken by name.
func (s *Store) Workloads() []Workload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPerson := make(map[string]*Workload)
	for _, r := range s.assignments {
		w, exists := byPerson[r.Responsible]
		if !exists {
			w = &Workload{Responsible: r.Responsible}
			byPerson[r.Responsible] = w
		}
		w.Count++
		w.Vehicles = append(w.Vehicles, r.Vehicle)
		if r.Status == StatusInactive {
			w.Inactive++
		} else {
			w.Active++
		}
	}

	workloads := make([]Workload, 0, len(byPerson))
	for _, w := range byPerson {
		sort.Strings(w.Vehicles)
		workloads = append(workloads, *w)
	}
	sort.Slice(workloads, func(i, j int) bool {
		if workloads[i].Count != workloads[j].Count {
			return workloads[i].Count > workloads[j].Count
		}
		return workloads[i].Responsible < workloads[j].Responsible
	})
	return workloads
}

// Search returns the assignments whose text fields contain the term,
// case-insensitively under Turkish folding, sorted by vehicle tag.
func (s *Store) Search(term string) []Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.All()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Record
	for _, r := range s.assignments {
		haystack := strings.Join([]string{
			r.Vehicle, r.Responsible, r.Email, r.Phone, r.Department, r.Notes,
		}, "\n")
		if turkish.ContainsFold(haystack, term) {
			matches = append(matches, r)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Vehicle < matches[j].Vehicle
	})
	return matches
}

// Snapshot copies the store state for persistence.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Assignments: make(map[string]Record, len(s.assignments)),
		History:     make([]HistoryEvent, len(s.history)),
	}
	for tag, r := range s.assignments {
		snap.Assignments[tag] = r
	}
	copy(snap.History, s.history)
	return snap
}

// Restore replaces the store state with a persisted snapshot.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments = make(map[string]Record, len(snap.Assignments))
	for tag, r := range snap.Assignments {
		s.assignments[tag] = r
	}
	s.history = make([]HistoryEvent, len(snap.History))
	copy(s.history, snap.History)
	s.trimHistory()
}

// appendEvent stamps and appends a history event; callers hold the lock.
func (s *Store) appendEvent(event HistoryEvent) {
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	s.history = append(s.history, event)
	s.trimHistory()
}

func (s *Store) trimHistory() {
	if len(s.history) <= s.historyLimit {
		return
	}
	over := len(s.history) - s.historyLimit
	s.history = append([]HistoryEvent(nil), s.history[over:]...)
}
