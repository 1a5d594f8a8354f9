package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/footsteps/internal/domain"
)

// pathUUID binds the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter %s: must be a UUID", name)
	}
	return id, nil
}

// paginationParams binds the optional ?page= and ?limit= query parameters.
func paginationParams(r *http.Request) (domain.PaginationParams, error) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid format for parameter page: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		return domain.PaginationParams{}, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return domain.NewPaginationParams(page, limit), nil
}

var errEmptyBody = errors.New("request body is required")

// decodeJSON decodes the request body into dst. A body cut off by
// http.MaxBytesReader is reported as-is so callers can answer 413.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errEmptyBody
	case isBodyTooLarge(err):
		return err
	default:
		return fmt.Errorf("malformed JSON body: %w", err)
	}
}

// readJSON decodes the body and writes the 400/413 response itself,
// returning false when the handler should stop.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		if isBodyTooLarge(err) {
			payloadTooLarge(w)
		} else {
			badRequest(w, err.Error())
		}
		return false
	}
	return true
}

// timestamp accepts either an RFC 3339 timestamp or a bare YYYY-MM-DD date,
// which is read as midnight UTC.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var full time.Time
	if err := full.UnmarshalJSON(b); err == nil {
		t.Time = full
		return nil
	}
	var d openapi_types.Date
	if err := d.UnmarshalJSON(b); err != nil {
		return errors.New("expected an RFC 3339 timestamp or a YYYY-MM-DD date")
	}
	t.Time = d.Time
	return nil
}
