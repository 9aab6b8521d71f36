package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

// RespondJSON writes a JSON response with the given status code.
// It marshals first so an encoding failure cannot produce a partial
// response after headers are sent.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail represents an RFC 7807 Problem Details response
type ProblemDetail struct {
	Type     string                 `json:"type"`
	Title    string                 `json:"title"`
	Status   int                    `json:"status"`
	Detail   string                 `json:"detail,omitempty"`
	Instance string                 `json:"instance,omitempty"`
	Extra    map[string]interface{} `json:"-"`
}

// MarshalJSON implements custom JSON marshaling to include Extra fields at top level
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// RespondError writes an RFC 7807 Problem Details error response
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondErrorWithExtras(w, status, detail, nil)
}

// RespondErrorWithExtras writes an RFC 7807 error with additional fields
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	problem := ProblemDetail{
		Type:   errorTypeFromStatus(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	}

	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondDomainError maps a domain error to its status code and writes
// it as a problem response, keeping the structured detail (offending
// fields, attempted strategies, conflicting id) in the body.
func RespondDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := "internal server error"
	var extras map[string]interface{}

	var httpErr domain.HTTPError
	switch {
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode()
		detail = httpErr.Error()
	case errors.Is(err, identity.ErrMalformedURI), errors.Is(err, identity.ErrInvalidPath):
		status = http.StatusBadRequest
		detail = err.Error()
	}

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var cycle *domain.CycleError
	switch {
	case errors.Is(err, identity.ErrMalformedURI):
		extras = map[string]interface{}{"error": "malformed_uri"}
	case errors.Is(err, identity.ErrInvalidPath):
		extras = map[string]interface{}{"error": "invalid_path"}
	case errors.As(err, &notFound):
		extras = map[string]interface{}{"ref": notFound.Ref, "attempted": notFound.Attempted}
	case errors.As(err, &validation):
		if len(validation.Fields) > 0 {
			extras = map[string]interface{}{"fields": validation.Fields}
		}
	case errors.As(err, &conflict):
		extras = map[string]interface{}{"resource_type": conflict.ResourceType, "resource_id": conflict.ResourceID}
	case errors.As(err, &cycle):
		extras = map[string]interface{}{"collection_id": cycle.CollectionID, "parent_id": cycle.ParentID}
	}

	RespondErrorWithExtras(w, status, detail, extras)
}

// errorTypeFromStatus returns the RFC 7807 type URI for a status code
func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusConflict:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8"
	case http.StatusUnprocessableEntity:
		return "https://datatracker.ietf.org/doc/html/rfc4918#section-11.2"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1"
	default:
		return "about:blank"
	}
}
