package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shoptrack/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem emits the simplified problem+json error shape.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// writeError maps a service error to a problem response without leaking
// transport details.
func writeError(w http.ResponseWriter, err error) {
	var se *orders.StatusError
	if errors.As(err, &se) {
		writeProblem(w, se.Code, typeFor(se.Code), se.Message)
		return
	}
	writeProblem(w, http.StatusInternalServerError, "internal", "unexpected error")
}

func typeFor(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "validation_failed"
	default:
		return "internal"
	}
}

func atoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
