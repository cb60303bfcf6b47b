package model

import (
	"errors"
	"time"
)

// PauseReason is the fixed enumeration of reasons a worker may pause a session.
type PauseReason string

const (
	PauseFaltaMaterial     PauseReason = "falta_material"
	PauseEnviadoOficina    PauseReason = "enviado_oficina"
	PauseEnviadoOrcamento  PauseReason = "enviado_orcamento"
	PauseAssinaturaGerente PauseReason = "assinatura_gerente"
)

// Valid reports whether r is a known pause reason.
func (r PauseReason) Valid() bool {
	switch r {
	case PauseFaltaMaterial, PauseEnviadoOficina, PauseEnviadoOrcamento, PauseAssinaturaGerente:
		return true
	}
	return false
}

// TimeEntry is one work session of a worker on a work order.
// EndTime nil means the session is open. DurationHours is set when the
// entry is closed and equals (EndTime - StartTime) in hours; the explicit
// edit path recomputes EndTime from an hours input instead.
type TimeEntry struct {
	ID            string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	WorkOrderID   string       `gorm:"type:varchar(64);not null;index" json:"work_order_id"`
	UserID        string       `gorm:"type:varchar(64);not null;index" json:"user_id"`
	StartTime     time.Time    `gorm:"not null" json:"start_time"`
	EndTime       *time.Time   `gorm:"index" json:"end_time"`
	DurationHours *float64     `json:"duration_hours"`
	Note          string       `gorm:"type:text" json:"note"`
	PauseReason   *PauseReason `gorm:"type:varchar(32)" json:"pause_reason"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name
func (TimeEntry) TableName() string {
	return "time_entries"
}

// Open reports whether the session is still running.
func (e *TimeEntry) Open() bool {
	return e.EndTime == nil
}

// Validate validates the time entry model
func (e *TimeEntry) Validate() error {
	if e.ID == "" {
		return errors.New("time entry ID is required")
	}
	if e.WorkOrderID == "" {
		return errors.New("time entry work order ID is required")
	}
	if e.UserID == "" {
		return errors.New("time entry user ID is required")
	}
	if e.StartTime.IsZero() {
		return errors.New("time entry start time is required")
	}
	if e.PauseReason != nil && !e.PauseReason.Valid() {
		return errors.New("time entry pause reason is invalid")
	}
	return nil
}
