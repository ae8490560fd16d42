package rest

import (
	"errors"
	"net/http"

	"github.com/WOOWTECH/paas-operator/internal/errdefs"
	"github.com/WOOWTECH/paas-operator/internal/pkg/redact"
)

// respondServiceError maps the service-layer error taxonomy to HTTP status
// codes. Anything unrecognized is a sanitized 500: full detail goes to the
// server log, never to the client.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *errdefs.ValidationError
		notFoundErr   *errdefs.NotFoundError
		unauthErr     *errdefs.UnauthorizedError
		accessErr     *errdefs.AccessError
		execErr       *errdefs.ExecutionError
		timeoutErr    *errdefs.TimeoutError
		binErr        *errdefs.BinaryNotFoundError
		cfErr         *errdefs.CloudflareError
	)
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &unauthErr):
		respondError(w, http.StatusUnauthorized, unauthErr.Message)
	case errors.As(err, &accessErr):
		respondError(w, http.StatusForbidden, accessErr.Message)
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &timeoutErr):
		h.log.Error("subprocess timeout", "error", err)
		respondError(w, http.StatusInternalServerError, "operation timed out")
	case errors.As(err, &binErr):
		h.log.Error("binary missing", "error", err)
		respondError(w, http.StatusInternalServerError, "required tool unavailable")
	case errors.As(err, &execErr):
		// Stderr stays server-side; the body carries only the summary.
		h.log.Error("external tool failed",
			"command", redact.CommandLine(execErr.Command), "stderr", execErr.Stderr)
		respondError(w, http.StatusInternalServerError, execErr.Message)
	case errors.As(err, &cfErr):
		h.log.Error("cloudflare api failed", "status", cfErr.StatusCode, "error", cfErr.Message)
		respondError(w, http.StatusInternalServerError, "tunnel provider request failed")
	default:
		h.log.Error("unhandled error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
