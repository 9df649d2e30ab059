package server

import (
	"net/http"
	"regexp"
	"slices"
)

// DefaultAPIVersion is served when the client does not ask for one.
const DefaultAPIVersion = "v1"

// APIVersionHeader reports the negotiated version on every API response.
const APIVersionHeader = "X-API-Version"

var (
	supportedAPIVersions = []string{"v1"}
	vendorMediaType      = regexp.MustCompile(`application/vnd\.rhsm\.(v[0-9]+)\+json`)
)

// negotiateAPIVersion reads application/vnd.rhsm.vN+json from Accept.
func negotiateAPIVersion(r *http.Request) string {
	m := vendorMediaType.FindStringSubmatch(r.Header.Get("Accept"))
	if m == nil || !isValidAPIVersion(m[1]) {
		return DefaultAPIVersion
	}
	return m[1]
}

func isValidAPIVersion(v string) bool {
	return slices.Contains(supportedAPIVersions, v)
}
