package clients

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

type Service struct {
	clients   clientrepo.Repository
	incidents incidentrepo.Repository
	log       *zap.Logger
}

func NewService(clients clientrepo.Repository, incidents incidentrepo.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{clients: clients, incidents: incidents, log: log}
}

// ListRows returns the team's clients joined with their latest incident, most recent first.
func (s *Service) ListRows(ctx context.Context, teamID domain.TeamID) ([]aggregate.ClientRow, error) {
	var (
		cs  []domain.Client
		ins []domain.Incident
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cs, err = s.clients.ListByTeam(gctx, teamID)
		return err
	})
	g.Go(func() error {
		var err error
		ins, err = s.incidents.ListByTeam(gctx, teamID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Debug("client rows fetch failed", zap.String("team_id", string(teamID)), zap.Error(err))
		return nil, err
	}
	return aggregate.ClientRows(cs, ins), nil
}

// ListRowsSorted is ListRows reordered by an interactive sort state.
func (s *Service) ListRowsSorted(ctx context.Context, teamID domain.TeamID, st sortstate.State[aggregate.ClientField]) ([]aggregate.ClientRow, error) {
	rows, err := s.ListRows(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return aggregate.SortClientRows(rows, st), nil
}

func (s *Service) Get(ctx context.Context, teamID domain.TeamID, id domain.ClientID) (domain.Client, error) {
	return s.clients.GetByID(ctx, teamID, id)
}

// Incidents returns the client's incident rows in creation order. The client lookup runs
// alongside the incident fetch so that a foreign or missing client fails the call.
func (s *Service) Incidents(ctx context.Context, teamID domain.TeamID, id domain.ClientID) ([]aggregate.IncidentRow, error) {
	var ins []domain.Incident
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.clients.GetByID(gctx, teamID, id)
		return err
	})
	g.Go(func() error {
		var err error
		ins, err = s.incidents.ListByClient(gctx, teamID, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregate.IncidentRows(ins), nil
}

type CreateInput struct {
	Name    string
	Notes   string
	Phone   *string
	Address *string
}

func (s *Service) Create(ctx context.Context, teamID domain.TeamID, in CreateInput) (domain.Client, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.Client{}, apperr.Validation("name", "invalid name", "must be non-empty")
	}
	c, err := s.clients.Create(ctx, teamID, domain.Client{
		Name:    name,
		Notes:   in.Notes,
		Phone:   in.Phone,
		Address: in.Address,
	})
	if err != nil {
		return domain.Client{}, mapInvalid(err)
	}
	s.log.Info("client created", zap.String("team_id", string(teamID)), zap.String("client_id", string(c.ID)))
	return c, nil
}

func (s *Service) Update(ctx context.Context, teamID domain.TeamID, id domain.ClientID, p clientrepo.Patch) (domain.Client, error) {
	c, err := s.clients.Update(ctx, teamID, id, p)
	if err != nil {
		return domain.Client{}, mapInvalid(err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, teamID domain.TeamID, id domain.ClientID) error {
	return s.clients.Delete(ctx, teamID, id)
}

func mapInvalid(err error) error {
	if errors.Is(err, clientrepo.ErrInvalid) {
		return &apperr.Error{Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	return err
}
