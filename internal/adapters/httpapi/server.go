package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/fieldops/fieldops-api/internal/aggregate"
	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/app/clients"
	"github.com/fieldops/fieldops-api/internal/app/incidents"
	"github.com/fieldops/fieldops-api/internal/app/members"
	"github.com/fieldops/fieldops-api/internal/domain"
	"github.com/fieldops/fieldops-api/internal/platform/metrics"
	"github.com/fieldops/fieldops-api/internal/ports/out/clientrepo"
	"github.com/fieldops/fieldops-api/internal/ports/out/incidentrepo"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

// Server is the HTTP adapter over the application services.
type Server struct {
	Clients   *clients.Service
	Incidents *incidents.Service
	Members   *members.Service

	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewServer(clientsSvc *clients.Service, incidentsSvc *incidents.Service, membersSvc *members.Service, log *zap.Logger, m *metrics.Metrics) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Clients:   clientsSvc,
		Incidents: incidentsSvc,
		Members:   membersSvc,
		log:       log,
		metrics:   m,
	}
}

type teamKey struct{}

func teamFromContext(ctx context.Context) domain.TeamID {
	id, _ := ctx.Value(teamKey{}).(domain.TeamID)
	return id
}

func caller(r *http.Request) domain.Account {
	acct, _ := AccountFromContext(r.Context())
	return acct
}

// teamScope binds {teamId} and requires the caller to be a member of it.
func (s *Server) teamScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := pathParam(r, "teamId")
		if err != nil {
			s.writeErr(w, r, "team_scope", err)
			return
		}
		acct, ok := AccountFromContext(r.Context())
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
			return
		}
		teamID := domain.TeamID(raw)
		if _, err := s.Members.RequireMember(r.Context(), teamID, acct.UserID); err != nil {
			s.writeErr(w, r, "team_scope", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), teamKey{}, teamID)))
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &apperr.Error{
			Status:  http.StatusUnprocessableEntity,
			Code:    "VALIDATION_ERROR",
			Message: "invalid request body",
			Details: map[string]any{"body": err.Error()},
		}
	}
	return nil
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	acct, ok := AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	ts, err := s.Members.Teams(r.Context(), acct.UserID)
	if err != nil {
		s.writeErr(w, r, "list_teams", err)
		return
	}
	out := make([]TeamDTO, 0, len(ts))
	for _, t := range ts {
		out = append(out, teamFromDomain(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	acct, ok := AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	var body createTeamRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeErr(w, r, "create_team", err)
		return
	}
	t, err := s.Members.CreateTeam(r.Context(), acct, body.Name)
	if err != nil {
		s.writeErr(w, r, "create_team", err)
		return
	}
	writeJSON(w, http.StatusCreated, teamFromDomain(t))
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	p, err := bindListParams(r)
	if err != nil {
		s.writeErr(w, r, "list_clients", err)
		return
	}
	st, custom, err := sortState(p, aggregate.DefaultClientSort(), aggregate.ClientFieldName, aggregate.ClientFieldLastIncident)
	if err != nil {
		s.writeErr(w, r, "list_clients", err)
		return
	}
	teamID := teamFromContext(r.Context())
	var rows []aggregate.ClientRow
	if custom {
		rows, err = s.Clients.ListRowsSorted(r.Context(), teamID, st)
	} else {
		rows, err = s.Clients.ListRows(r.Context(), teamID)
	}
	if err != nil {
		s.writeErr(w, r, "list_clients", err)
		return
	}
	resp := struct {
		Clients []ClientRowDTO                         `json:"clients"`
		Sort    *sortstate.State[aggregate.ClientField] `json:"sort,omitempty"`
	}{Clients: clientRowsFromAggregate(rows)}
	if custom {
		resp.Sort = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var body createClientRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeErr(w, r, "create_client", err)
		return
	}
	c, err := s.Clients.Create(r.Context(), teamFromContext(r.Context()), clients.CreateInput{
		Name:    body.Name,
		Notes:   body.Notes,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		s.writeErr(w, r, "create_client", err)
		return
	}
	writeJSON(w, http.StatusCreated, clientFromDomain(c))
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "clientId")
	if err != nil {
		s.writeErr(w, r, "get_client", err)
		return
	}
	c, err := s.Clients.Get(r.Context(), teamFromContext(r.Context()), domain.ClientID(id))
	if err != nil {
		s.writeErr(w, r, "get_client", err)
		return
	}
	writeJSON(w, http.StatusOK, clientFromDomain(c))
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "clientId")
	if err != nil {
		s.writeErr(w, r, "update_client", err)
		return
	}
	var body updateClientRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeErr(w, r, "update_client", err)
		return
	}
	c, err := s.Clients.Update(r.Context(), teamFromContext(r.Context()), domain.ClientID(id), clientrepo.Patch{
		Name:    body.Name,
		Notes:   body.Notes,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		s.writeErr(w, r, "update_client", err)
		return
	}
	writeJSON(w, http.StatusOK, clientFromDomain(c))
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "clientId")
	if err != nil {
		s.writeErr(w, r, "delete_client", err)
		return
	}
	if err := s.Clients.Delete(r.Context(), teamFromContext(r.Context()), domain.ClientID(id)); err != nil {
		s.writeErr(w, r, "delete_client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listClientIncidents(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "clientId")
	if err != nil {
		s.writeErr(w, r, "list_client_incidents", err)
		return
	}
	rows, err := s.Clients.Incidents(r.Context(), teamFromContext(r.Context()), domain.ClientID(id))
	if err != nil {
		s.writeErr(w, r, "list_client_incidents", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": incidentRowsFromAggregate(rows)})
}

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request) {
	p, err := bindListParams(r)
	if err != nil {
		s.writeErr(w, r, "list_incidents", err)
		return
	}
	st, custom, err := sortState(p, aggregate.DefaultIncidentSort(),
		aggregate.IncidentFieldDate, aggregate.IncidentFieldStatus, aggregate.IncidentFieldClient)
	if err != nil {
		s.writeErr(w, r, "list_incidents", err)
		return
	}
	teamID := teamFromContext(r.Context())
	var rows []aggregate.IncidentRow
	if custom {
		rows, err = s.Incidents.ListRowsSorted(r.Context(), teamID, st)
	} else {
		rows, err = s.Incidents.ListRows(r.Context(), teamID)
	}
	if err != nil {
		s.writeErr(w, r, "list_incidents", err)
		return
	}
	resp := struct {
		Incidents []IncidentRowDTO                         `json:"incidents"`
		Sort      *sortstate.State[aggregate.IncidentField] `json:"sort,omitempty"`
	}{Incidents: incidentRowsFromAggregate(rows)}
	if custom {
		resp.Sort = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createIncident(w http.ResponseWriter, r *http.Request) {
	var body createIncidentRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeErr(w, r, "create_incident", err)
		return
	}
	inc, err := s.Incidents.Create(r.Context(), teamFromContext(r.Context()), caller(r).UserID, incidents.CreateInput{
		ClientID:    domain.ClientID(body.ClientID),
		Description: body.Description,
		Status:      domain.IncidentStatus(body.Status),
	})
	if err != nil {
		s.writeErr(w, r, "create_incident", err)
		return
	}
	writeJSON(w, http.StatusCreated, incidentFromDomain(inc))
}

func (s *Server) getIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "incidentId")
	if err != nil {
		s.writeErr(w, r, "get_incident", err)
		return
	}
	inc, err := s.Incidents.Get(r.Context(), teamFromContext(r.Context()), domain.IncidentID(id))
	if err != nil {
		s.writeErr(w, r, "get_incident", err)
		return
	}
	writeJSON(w, http.StatusOK, incidentFromDomain(inc))
}

func (s *Server) deleteIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "incidentId")
	if err != nil {
		s.writeErr(w, r, "delete_incident", err)
		return
	}
	if err := s.Incidents.Delete(r.Context(), teamFromContext(r.Context()), domain.IncidentID(id)); err != nil {
		s.writeErr(w, r, "delete_incident", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "incidentId")
	if err != nil {
		s.writeErr(w, r, "update_incident", err)
		return
	}
	var body updateIncidentRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeErr(w, r, "update_incident", err)
		return
	}
	inc, err := s.Incidents.Update(r.Context(), teamFromContext(r.Context()), domain.IncidentID(id), incidentrepo.Patch{
		Description: body.Description,
		Status:      body.Status,
	})
	if err != nil {
		s.writeErr(w, r, "update_incident", err)
		return
	}
	writeJSON(w, http.StatusOK, incidentFromDomain(inc))
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	p, err := bindListParams(r)
	if err != nil {
		s.writeErr(w, r, "list_members", err)
		return
	}
	st, custom, err := sortState(p, aggregate.DefaultMemberSort(), aggregate.MemberFieldName, aggregate.MemberFieldRole)
	if err != nil {
		s.writeErr(w, r, "list_members", err)
		return
	}
	teamID := teamFromContext(r.Context())
	var rows []aggregate.MemberRow
	if custom {
		rows, err = s.Members.ListRowsSorted(r.Context(), teamID, st)
	} else {
		rows, err = s.Members.ListRows(r.Context(), teamID)
	}
	if err != nil {
		s.writeErr(w, r, "list_members", err)
		return
	}
	resp := struct {
		Members []MemberRowDTO                         `json:"members"`
		Sort    *sortstate.State[aggregate.MemberField] `json:"sort,omitempty"`
	}{Members: memberRowsFromAggregate(rows)}
	if custom {
		resp.Sort = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createInvite(w http.ResponseWriter, r *http.Request) {
	var body createInviteRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			s.writeErr(w, r, "create_invite", err)
			return
		}
	}
	inv, err := s.Members.CreateInvite(r.Context(), teamFromContext(r.Context()), caller(r).UserID, domain.Role(body.Role))
	if err != nil {
		s.writeErr(w, r, "create_invite", err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteFromDomain(inv))
}

func (s *Server) getInvite(w http.ResponseWriter, r *http.Request) {
	code, err := pathParam(r, "code")
	if err != nil {
		s.writeErr(w, r, "get_invite", err)
		return
	}
	inv, err := s.Members.ValidateInvite(r.Context(), domain.InviteCode(code))
	if err != nil {
		s.writeErr(w, r, "get_invite", err)
		return
	}
	writeJSON(w, http.StatusOK, inviteFromDomain(inv))
}

func (s *Server) joinInvite(w http.ResponseWriter, r *http.Request) {
	code, err := pathParam(r, "code")
	if err != nil {
		s.writeErr(w, r, "join_invite", err)
		return
	}
	acct, ok := AccountFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing subject", nil)
		return
	}
	u, err := s.Members.Join(r.Context(), domain.InviteCode(code), acct)
	if err != nil {
		s.writeErr(w, r, "join_invite", err)
		return
	}
	writeJSON(w, http.StatusCreated, memberFromDomain(u))
}
