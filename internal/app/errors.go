package app

import (
	"errors"
	"fmt"
	"net/http"

	"atelier/portal/internal/auth"
	"atelier/portal/internal/backend"
	"atelier/portal/internal/board"
	"atelier/portal/internal/catalog"
	"atelier/portal/internal/editor"
	"atelier/portal/internal/session"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func invalidBody(err error) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
}

func invalidInput(message string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_INPUT", message, nil)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	var submitErr *editor.SubmitError
	if errors.As(err, &submitErr) {
		if editor.IsNameRequired(err) {
			return http.StatusUnprocessableEntity, "NAME_REQUIRED", submitErr.Message, nil
		}
		return http.StatusBadGateway, "SUBMIT_FAILED", submitErr.Message, nil
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, session.ErrNotFound):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, session.ErrEmailRequired):
		return http.StatusBadRequest, "INVALID_INPUT", "Email is required", nil
	case errors.Is(err, editor.ErrEditorNotFound):
		return http.StatusNotFound, "EDITOR_NOT_FOUND", "Editor not found", nil
	case errors.Is(err, editor.ErrNotReady), errors.Is(err, editor.ErrAlreadyOpen):
		return http.StatusConflict, "EDITOR_NOT_READY", err.Error(), nil
	case errors.Is(err, editor.ErrInvalidTwin),
		errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrInvalidNumber),
		errors.Is(err, catalog.ErrValueRequired),
		errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil
	case errors.Is(err, board.ErrProjectNotOnBoard), errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, "UPSTREAM_ERROR", backend.Message(err, "Upstream request failed"), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
