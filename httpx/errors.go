package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// ErrorBody is the JSON payload sent for every *apperr.Error.
type ErrorBody struct {
	Error   apperr.Kind `json:"error"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Details []string    `json:"details,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.NotFound:           http.StatusNotFound,
	apperr.ValidationFailed:   http.StatusUnprocessableEntity,
	apperr.InvalidSchema:      http.StatusUnprocessableEntity,
	apperr.Conflict:           http.StatusConflict,
	apperr.InvalidCredentials: http.StatusUnauthorized,
	apperr.Forbidden:          http.StatusForbidden,
}

// Will log err and send it as JSON with the status matching its kind.
// Errors without a kind are internal errors and their text is not exposed.
func LogError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var aerr *apperr.Error
	if !errors.As(err, &aerr) {
		LogInternalError(w, code, err)
		return
	}
	status, ok := statusByKind[aerr.Kind]
	if !ok {
		LogInternalError(w, code, err)
		return
	}

	log.Debugf("%s: %s", code, err)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{
		Error:   aerr.Kind,
		Message: aerr.Message,
		Field:   aerr.FieldID,
		Reason:  aerr.Reason,
		Details: aerr.Details,
	})
}
