// Package assignment binds vehicles to responsible personnel and keeps an
// append-only history of every change.
package assignment

import "time"

// Status of an assignment.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Action recorded in the history.
type Action string

const (
	ActionAssigned Action = "assigned"
	ActionChanged  Action = "changed"
	ActionRemoved  Action = "removed"
)

// Record binds one vehicle to one responsible person.
type Record struct {
	Vehicle     string    `json:"vehicle"`
	Responsible string    `json:"responsible"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Department  string    `json:"department,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      Status    `json:"status"`
	AssignedAt  time.Time `json:"assigned_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Info is the caller-supplied part of an assignment.
type Info struct {
	Responsible string `json:"responsible" validate:"required,person_name"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,tr_phone"`
	Department  string `json:"department,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Patch carries the updatable fields; nil pointers are left untouched.
type Patch struct {
	Responsible *string `json:"responsible,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Department  *string `json:"department,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Status      *Status `json:"status,omitempty"`
}

// HistoryEvent is one append-only entry of the assignment audit trail.
type HistoryEvent struct {
	ID        string    `json:"id"`
	Vehicle   string    `json:"vehicle"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
	Snapshot  Record    `json:"snapshot"`
}

// Workload aggregates the vehicles of one responsible person.
type Workload struct {
	Responsible string   `json:"responsible"`
	Count       int      `json:"count"`
	Vehicles    []string `json:"vehicles"`
	Active      int      `json:"active"`
	Inactive    int      `json:"inactive"`
}

// Snapshot is the persisted form of the store.
type Snapshot struct {
	Assignments map[string]Record `json:"assignments"`
	History     []HistoryEvent    `json:"assignment_history"`
}
