package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/message"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/user"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/httpapi"
	"github.com/chathub-dev/chathub/pkg/serrors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpapi.WriteJSON(w, status, payload); err != nil {
		panic(err)
	}
}

func ensureRequestID(w http.ResponseWriter, r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(configuration.Use().RequestIDHeader)
	if header == "" {
		header = "X-Request-ID"
	}

	requestID := strings.TrimSpace(r.Header.Get(header))
	if requestID == "" {
		requestID = strings.TrimSpace(r.Header.Get("X-Request-Id"))
	}
	if requestID == "" {
		requestID = uuid.NewString()
		w.Header().Set(header, requestID)
	}
	return requestID
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	_ = httpapi.WriteError(w, status, code, message, map[string]string{
		"request_id": ensureRequestID(w, r),
	})
}

func firstValidationMessage(errs serrors.ValidationErrors) string {
	for _, msg := range errs {
		if strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return "validation failed"
}

// writeDomainError maps the shared domain errors onto HTTP statuses; anything
// unrecognized becomes a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.Base
	if errors.As(err, &base) {
		switch {
		case errors.Is(err, user.ErrNotFound),
			errors.Is(err, group.ErrNotFound),
			errors.Is(err, message.ErrNotFound):
			writeAPIError(w, r, http.StatusNotFound, base.Code, base.Message)
			return
		case errors.Is(err, message.ErrDeleted),
			errors.Is(err, group.ErrAlreadyMember):
			writeAPIError(w, r, http.StatusBadRequest, base.Code, base.Message)
			return
		case errors.Is(err, group.ErrNotMember),
			errors.Is(err, message.ErrNotSender):
			writeAPIError(w, r, http.StatusForbidden, base.Code, base.Message)
			return
		case errors.Is(err, user.ErrNameTaken):
			writeAPIError(w, r, http.StatusBadRequest, base.Code, base.Message)
			return
		}
	}
	writeAPIError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error")
}
