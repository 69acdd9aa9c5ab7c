package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/username/markupx/backend/src/logger"
)

type jsonErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes a JSON error body with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(jsonErrorResponse{Error: message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}

// SendJSONResponse writes any payload as JSON with the given status code.
func SendJSONResponse(w http.ResponseWriter, payload any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// GenerateETag returns a hex SHA-256 over the JSON encoding of v, suitable for
// If-None-Match handling on cacheable GET responses.
func GenerateETag(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
