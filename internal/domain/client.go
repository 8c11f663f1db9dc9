package domain

import "time"

// Client is a customer site or account the team performs field work for.
type Client struct {
	ID     ClientID
	TeamID TeamID

	Name  string
	Notes string
	// Phone and Address are optional contact details; nil means unset.
	Phone   *string
	Address *string

	IsDeleted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
