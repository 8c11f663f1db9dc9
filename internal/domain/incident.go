package domain

import "time"

type IncidentStatus string

const (
	IncidentStatusOpen       IncidentStatus = "open"
	IncidentStatusInProgress IncidentStatus = "in_progress"
	IncidentStatusResolved   IncidentStatus = "resolved"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusInProgress, IncidentStatusResolved:
		return true
	default:
		return false
	}
}

// Incident is a reported problem at a client. ClientID is the reference used to join
// incidents to their owning client.
type Incident struct {
	ID       IncidentID
	TeamID   TeamID
	ClientID ClientID

	Description string
	Status      IncidentStatus
	CreatedBy   UserID

	IsDeleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
