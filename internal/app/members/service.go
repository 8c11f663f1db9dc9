package members

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/ports/out/inviterepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/teamrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/userrepo"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

type Service struct {
	users   userrepo.Repository
	teams   teamrepo.Repository
	invites inviterepo.Repository
	log     *zap.Logger
}

func NewService(users userrepo.Repository, teams teamrepo.Repository, invites inviterepo.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, teams: teams, invites: invites, log: log}
}

// RequireMember returns the caller's membership in teamID. A caller without one gets a
// 403; an unknown team keeps its not-found error.
func (s *Service) RequireMember(ctx context.Context, teamID domain.TeamID, caller domain.UserID) (domain.User, error) {
	u, err := s.users.Get(ctx, caller, teamID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, &apperr.Error{
				Status:  http.StatusForbidden,
				Code:    "NOT_A_MEMBER",
				Message: "caller is not a member of this team",
			}
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *Service) ListRows(ctx context.Context, teamID domain.TeamID) ([]aggregate.MemberRow, error) {
	us, err := s.users.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return aggregate.MemberRows(us), nil
}

func (s *Service) ListRowsSorted(ctx context.Context, teamID domain.TeamID, st sortstate.State[aggregate.MemberField]) ([]aggregate.MemberRow, error) {
	rows, err := s.ListRows(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return aggregate.SortMemberRows(rows, st), nil
}

// Teams lists the teams acct belongs to.
func (s *Service) Teams(ctx context.Context, userID domain.UserID) ([]domain.Team, error) {
	return s.teams.ListForUser(ctx, userID)
}

// CreateTeam creates a team owned by acct.
func (s *Service) CreateTeam(ctx context.Context, acct domain.Account, name string) (domain.Team, error) {
	name = domain.NormalizeHumanName(name)
	if name == "" {
		return domain.Team{}, apperr.Validation("name", "invalid name", "must be non-empty")
	}
	t, _, err := s.teams.Create(ctx, domain.Team{Name: name}, domain.User{
		ID:          acct.UserID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
	})
	if errors.Is(err, teamrepo.ErrInvalid) {
		return domain.Team{}, &apperr.Error{Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR", Message: err.Error()}
	}
	if err != nil {
		return domain.Team{}, err
	}
	s.log.Info("team created", zap.String("team_id", string(t.ID)), zap.String("owner_id", string(acct.UserID)))
	return t, nil
}

// CreateInvite issues a code granting role (member when empty). Only owners and admins
// may invite.
func (s *Service) CreateInvite(ctx context.Context, teamID domain.TeamID, caller domain.UserID, role domain.Role) (domain.Invite, error) {
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() || role == domain.RoleOwner {
		return domain.Invite{}, apperr.Validation("role", "invalid role", "must be admin or member")
	}
	me, err := s.RequireMember(ctx, teamID, caller)
	if err != nil {
		return domain.Invite{}, err
	}
	if me.Role == domain.RoleMember {
		return domain.Invite{}, &apperr.Error{
			Status:  http.StatusForbidden,
			Code:    "INSUFFICIENT_ROLE",
			Message: "only owners and admins can invite",
		}
	}
	inv, err := s.invites.CreateCode(ctx, teamID, caller, role)
	if err != nil {
		if errors.Is(err, inviterepo.ErrInvalidRole) {
			return domain.Invite{}, apperr.Validation("role", "invalid role", "must be admin or member")
		}
		return domain.Invite{}, err
	}
	s.log.Info("invite created", zap.String("team_id", string(teamID)), zap.String("role", string(role)))
	return inv, nil
}

func (s *Service) ValidateInvite(ctx context.Context, code domain.InviteCode) (domain.Invite, error) {
	inv, err := s.invites.ValidateCode(ctx, inviterepo.NormalizeCode(code))
	if err != nil {
		return domain.Invite{}, mapInviteErr(err)
	}
	return inv, nil
}

// Join redeems code for acct.
func (s *Service) Join(ctx context.Context, code domain.InviteCode, acct domain.Account) (domain.User, error) {
	u, err := s.invites.JoinWithCode(ctx, inviterepo.NormalizeCode(code), domain.User{
		ID:          acct.UserID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
	})
	if err != nil {
		return domain.User{}, mapInviteErr(err)
	}
	s.log.Info("member joined", zap.String("team_id", string(u.TeamID)), zap.String("user_id", string(u.ID)))
	return u, nil
}

func mapInviteErr(err error) error {
	switch {
	case errors.Is(err, inviterepo.ErrUnusable):
		return &apperr.Error{
			Status:  http.StatusGone,
			Code:    "INVITE_UNUSABLE",
			Message: "invite code has expired or was already used",
		}
	case errors.Is(err, userrepo.ErrAlreadyExists):
		return &apperr.Error{
			Status:  http.StatusConflict,
			Code:    "ALREADY_A_MEMBER",
			Message: "caller is already a member of this team",
		}
	case errors.Is(err, userrepo.ErrInvalid):
		return &apperr.Error{Status: http.StatusUnprocessableEntity, Code: "VALIDATION_ERROR", Message: err.Error()}
	default:
		return err
	}
}
