package handler

import (
	"net/http"
	"strconv"
)

// intQuery reads an integer query parameter, falling back to def on
// absence or garbage.
func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
