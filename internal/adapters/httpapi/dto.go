package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/domain"
)

type ClientRowDTO struct {
	ID               string                       `json:"id"`
	Name             string                       `json:"name"`
	Notes            string                       `json:"notes"`
	LastIncidentDate nullable.Nullable[time.Time] `json:"lastIncidentDate"`
	IncidentCount    int                          `json:"incidentCount"`
}

type IncidentRowDTO struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"statusLabel"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MemberRowDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	RoleLabel   string `json:"roleLabel"`
}

type ClientDTO struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type IncidentDTO struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TeamDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

type InviteDTO struct {
	Code      string    `json:"code"`
	TeamID    string    `json:"teamId"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MemberDTO struct {
	ID          string `json:"id"`
	TeamID      string `json:"teamId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type createClientRequest struct {
	Name    string  `json:"name"`
	Notes   string  `json:"notes"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type updateClientRequest struct {
	Name    nullable.Nullable[string] `json:"name,omitempty"`
	Notes   nullable.Nullable[string] `json:"notes,omitempty"`
	Phone   nullable.Nullable[string] `json:"phone,omitempty"`
	Address nullable.Nullable[string] `json:"address,omitempty"`
}

type createIncidentRequest struct {
	ClientID    string `json:"clientId"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type updateIncidentRequest struct {
	Description nullable.Nullable[string]                `json:"description,omitempty"`
	Status      nullable.Nullable[domain.IncidentStatus] `json:"status,omitempty"`
}

type createInviteRequest struct {
	Role string `json:"role"`
}

func clientRowsFromAggregate(rows []aggregate.ClientRow) []ClientRowDTO {
	out := make([]ClientRowDTO, 0, len(rows))
	for _, r := range rows {
		dto := ClientRowDTO{
			ID:               string(r.ID),
			Name:             r.Name,
			Notes:            r.Notes,
			LastIncidentDate: nullable.NewNullNullable[time.Time](),
			IncidentCount:    r.IncidentCount,
		}
		if r.HasIncidents() {
			dto.LastIncidentDate = nullable.NewNullableWithValue(r.LastIncidentDate)
		}
		out = append(out, dto)
	}
	return out
}

func incidentRowsFromAggregate(rows []aggregate.IncidentRow) []IncidentRowDTO {
	out := make([]IncidentRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, IncidentRowDTO{
			ID:          string(r.ID),
			ClientID:    string(r.ClientID),
			Description: r.Description,
			Status:      string(r.Status),
			StatusLabel: r.StatusLabel,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

func memberRowsFromAggregate(rows []aggregate.MemberRow) []MemberRowDTO {
	out := make([]MemberRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, MemberRowDTO{
			ID:          string(r.ID),
			DisplayName: r.DisplayName,
			Email:       r.Email,
			Role:        string(r.Role),
			RoleLabel:   r.RoleLabel,
		})
	}
	return out
}

func clientFromDomain(c domain.Client) ClientDTO {
	return ClientDTO{
		ID:        string(c.ID),
		TeamID:    string(c.TeamID),
		Name:      c.Name,
		Notes:     c.Notes,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func incidentFromDomain(inc domain.Incident) IncidentDTO {
	return IncidentDTO{
		ID:          string(inc.ID),
		ClientID:    string(inc.ClientID),
		Description: inc.Description,
		Status:      string(inc.Status),
		CreatedBy:   string(inc.CreatedBy),
		CreatedAt:   inc.CreatedAt,
		UpdatedAt:   inc.UpdatedAt,
	}
}

func teamFromDomain(t domain.Team) TeamDTO {
	return TeamDTO{ID: string(t.ID), Name: t.Name, OwnerID: string(t.OwnerID), CreatedAt: t.CreatedAt}
}

func inviteFromDomain(inv domain.Invite) InviteDTO {
	return InviteDTO{Code: string(inv.Code), TeamID: string(inv.TeamID), Role: string(inv.Role), ExpiresAt: inv.ExpiresAt}
}

func memberFromDomain(u domain.User) MemberDTO {
	return MemberDTO{
		ID:          string(u.ID),
		TeamID:      string(u.TeamID),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        string(u.Role),
	}
}
