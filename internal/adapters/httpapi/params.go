package httpapi

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/fieldops/fieldops-api/internal/app/apperr"
	"github.com/fieldops/fieldops-api/internal/sortstate"
)

func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil {
		return "", &apperr.Error{
			Status:  http.StatusBadRequest,
			Code:    "INVALID_PARAMETER",
			Message: fmt.Sprintf("invalid %s", name),
			Details: map[string]any{name: err.Error()},
		}
	}
	return v, nil
}

type listParams struct {
	Sort *string
	Asc  *bool
}

func bindListParams(r *http.Request) (listParams, error) {
	var p listParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "sort", q, &p.Sort); err != nil {
		return p, apperr.Validation("sort", "invalid sort", err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "asc", q, &p.Asc); err != nil {
		return p, apperr.Validation("asc", "invalid asc", "must be true or false")
	}
	return p, nil
}

// sortState resolves the interactive ordering requested by p. ok is false when the caller
// asked for none, in which case the default list order applies.
func sortState[F ~string](p listParams, def sortstate.State[F], fields ...F) (st sortstate.State[F], ok bool, err error) {
	if p.Sort == nil && p.Asc == nil {
		return def, false, nil
	}
	field := def.Field()
	if p.Sort != nil {
		field = F(*p.Sort)
		if !slices.Contains(fields, field) {
			return def, false, apperr.Validation("sort", "invalid sort", fmt.Sprintf("must be one of %v", fields))
		}
	}
	asc := true
	if p.Asc != nil {
		asc = *p.Asc
	}
	return sortstate.New(field, asc), true, nil
}
