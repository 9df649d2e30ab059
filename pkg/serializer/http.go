package serializer

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

// Content types written by Respond.
const (
	ContentTypeJSON = "application/json"
	ContentTypeYAML = "application/yaml"
)

// RespondJSON writes data as JSON with statusCode. The body is encoded
// before any header is written so an encoding failure still yields a clean
// 500.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	respond(w, statusCode, FormatJSON, data)
}

// Respond writes data as YAML when the request accepts application/yaml (or
// text/yaml) ahead of JSON, and as JSON otherwise.
func Respond(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	respond(w, statusCode, negotiate(r.Header.Get("Accept")), data)
}

func negotiate(accept string) Format {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case ContentTypeYAML, "text/yaml", "application/x-yaml":
			return FormatYAML
		case ContentTypeJSON:
			return FormatJSON
		}
	}
	return FormatJSON
}

func respond(w http.ResponseWriter, statusCode int, format Format, data any) {
	body, err := Encode(format, data)
	if err != nil {
		slog.Error("response encoding failed", slog.String("format", string(format)), slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	contentType := ContentTypeJSON
	if format == FormatYAML {
		contentType = ContentTypeYAML
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Warn("response write failed", slog.String("error", err.Error()))
	}
}
