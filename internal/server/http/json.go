package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/nestdevhive/internal/common"
	"github.com/dmitrijs2005/nestdevhive/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation"
)

const maxBodyBytes = 1 << 20

type detail struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// readJSON decodes the request body into dst. Unknown fields are ignored;
// decoding failures are reported as validation errors.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", common.ErrorValidation, err)
	}
	return nil
}

// writeError translates err into a status code and a {"detail"} body.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusUnprocessableEntity, detail{Detail: fields})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, detail{Detail: "invalid request body"})
	case errors.Is(err, common.ErrorConflict):
		writeJSON(w, http.StatusBadRequest, detail{Detail: conflictMessage(err)})
	case errors.Is(err, common.ErrorUnauthorized):
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
		msg := "Could not validate credentials"
		if errors.Is(err, common.ErrTokenExpired) {
			msg = "Token expired"
		}
		writeJSON(w, http.StatusUnauthorized, detail{Detail: msg})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, detail{Detail: "Not found"})
	default:
		log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, detail{Detail: "Internal server error"})
	}
}

// conflictMessage extracts the human readable part of a conflict, e.g.
// "email already registered".
func conflictMessage(err error) string {
	prefix := common.ErrorConflict.Error() + ": "
	msg := err.Error()
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return "Already exists"
}
