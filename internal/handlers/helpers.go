package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/printdesk/printdesk/internal/httpx"
	"github.com/printdesk/printdesk/internal/identity"
)

// requireActor pulls the resolved actor from context; without one the request
// never reaches a service.
func requireActor(w http.ResponseWriter, r *http.Request) (identity.Actor, bool) {
	actor, ok := identity.FromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "missing_identity", nil)
		return identity.Actor{}, false
	}
	return actor, true
}

// pathID parses a numeric path value.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id64 == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_"+name, nil)
		return 0, false
	}
	return uint(id64), true
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}
