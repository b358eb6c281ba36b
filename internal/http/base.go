package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/dropplan/internal/application"
)

// handlerBase carries what every resource handler shares.
type handlerBase struct {
	name      string
	responder responder
	logger    *slog.Logger
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	base := defaultLogger(logger)
	return handlerBase{name: name, responder: newResponder(base), logger: base}
}

func (h handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, h.name, operation, attrs...)
}

// decode reads the JSON body into dst and writes a 400 when it cannot.
func (h handlerBase) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode request body", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

// rejectFields writes a 422 when parsing left field errors behind.
func (h handlerBase) rejectFields(w http.ResponseWriter, r *http.Request, operation string, errs fieldErrors) bool {
	if len(errs) == 0 {
		return false
	}
	h.log(r.Context(), operation, "error_kind", "validation").ErrorContext(r.Context(), "request fields rejected", "fields", len(errs))
	h.responder.writeValidation(r.Context(), w, errs)
	return true
}

func (h handlerBase) fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	logger.ErrorContext(r.Context(), message, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

func principalOf(r *http.Request) application.Principal {
	principal, _ := PrincipalFromContext(r.Context())
	return principal
}
