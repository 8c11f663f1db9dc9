package incidents

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

type Service struct {
	incidents incidentrepo.Repository
	log       *zap.Logger
}

func NewService(incidents incidentrepo.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{incidents: incidents, log: log}
}

// ListRows returns the team's incidents in creation order.
func (s *Service) ListRows(ctx context.Context, teamID domain.TeamID) ([]aggregate.IncidentRow, error) {
	ins, err := s.incidents.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return aggregate.IncidentRows(ins), nil
}

func (s *Service) ListRowsSorted(ctx context.Context, teamID domain.TeamID, st sortstate.State[aggregate.IncidentField]) ([]aggregate.IncidentRow, error) {
	rows, err := s.ListRows(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return aggregate.SortIncidentRows(rows, st), nil
}

func (s *Service) Get(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) (domain.Incident, error) {
	return s.incidents.GetByID(ctx, teamID, id)
}

type CreateInput struct {
	ClientID    domain.ClientID
	Description string
	// Status defaults to open.
	Status domain.IncidentStatus
}

func (s *Service) Create(ctx context.Context, teamID domain.TeamID, caller domain.UserID, in CreateInput) (domain.Incident, error) {
	if !in.ClientID.Valid() {
		return domain.Incident{}, apperr.Validation("clientId", "invalid clientId", "must be non-empty")
	}
	status := in.Status
	if status == "" {
		status = domain.IncidentStatusOpen
	}
	if !status.Valid() {
		return domain.Incident{}, apperr.Validation("status", "invalid status", "must be one of open, in_progress, resolved")
	}
	inc, err := s.incidents.Create(ctx, teamID, domain.Incident{
		ClientID:    in.ClientID,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		CreatedBy:   caller,
	})
	if err != nil {
		return domain.Incident{}, mapInvalid(err)
	}
	s.log.Info("incident created",
		zap.String("team_id", string(teamID)),
		zap.String("incident_id", string(inc.ID)),
		zap.String("client_id", string(inc.ClientID)),
	)
	return inc, nil
}

func (s *Service) Update(ctx context.Context, teamID domain.TeamID, id domain.IncidentID, p incidentrepo.Patch) (domain.Incident, error) {
	inc, err := s.incidents.Update(ctx, teamID, id, p)
	if err != nil {
		return domain.Incident{}, mapInvalid(err)
	}
	return inc, nil
}

func (s *Service) Delete(ctx context.Context, teamID domain.TeamID, id domain.IncidentID) error {
	return s.incidents.Delete(ctx, teamID, id)
}

func mapInvalid(err error) error {
	if errors.Is(err, incidentrepo.ErrInvalid) {
		return &apperr.Error{Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	return err
}
