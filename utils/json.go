package utils

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1 << 20

// ParseJSON decodes the request body into v, rejecting bodies over 1 MiB.
func ParseJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
