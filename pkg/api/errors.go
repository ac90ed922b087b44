package api

import (
	"encoding/json"
	"net/http"

	"github.com/devtoc/infograph/pkg/errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// status maps an error code to its HTTP status.
func status(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeDocumentNotFound,
		errors.ErrCodePageNotFound, errors.ErrCodeWidgetNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRecord, errors.ErrCodeInvalidCommand,
		errors.ErrCodeInvalidTree, errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeInconsistent:
		return http.StatusConflict
	case errors.ErrCodeSchemaVersion, errors.ErrCodeSchemaConfig:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	st := status(code)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if st >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, st, errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, st int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(st)
	_ = json.NewEncoder(w).Encode(v)
}
