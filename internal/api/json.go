package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// readJSON decodes the request body into v, writing a 400 or 413 problem and
// returning false when it cannot.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Request too large", err.Error(), r.URL.Path)
		return false
	}
	writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
	return false
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
}
