package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/apphub/tagging-service/internal/errors"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

// errorBody is the JSON error envelope for the read API.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// WriteError maps an application error to its HTTP status and writes the
// error envelope. Internal causes are never leaked to the client.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(apperrors.GetCode(err))
	message := "internal error"

	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case apperrors.IsTimeout(err):
		status = http.StatusGatewayTimeout
		message = "request timed out"
	default:
		code = string(apperrors.ErrCodeInternal)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	WriteJSON(w, status, body)
}
