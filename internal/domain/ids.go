package domain

import "strings"

// ClientID identifies a client record. The zero value means the record has not been persisted.
type ClientID string

// IncidentID identifies an incident record.
type IncidentID string

// TeamID identifies a team (the tenant boundary for every multi-tenant operation).
type TeamID string

// UserID identifies an account. A user's membership record is keyed by (UserID, TeamID).
type UserID string

// InviteCode is the short, human-enterable code used to join a team.
type InviteCode string

func (id ClientID) Valid() bool   { return validID(string(id)) }
func (id IncidentID) Valid() bool { return validID(string(id)) }
func (id TeamID) Valid() bool     { return validID(string(id)) }
func (id UserID) Valid() bool     { return validID(string(id)) }
func (c InviteCode) Valid() bool  { return validID(string(c)) }

func validID(s string) bool {
	return strings.TrimSpace(s) != ""
}
