package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ParseJSONOrError decodes the request body into dst, writing a 400
// response and returning false on failure.
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ParsePathInt64 parses a path variable as int64, returning 0 when
// missing or malformed.
func ParsePathInt64(vars map[string]string, name string) int64 {
	value, err := strconv.ParseInt(vars[name], 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseQueryInt parses an integer query parameter with a default.
func ParseQueryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
