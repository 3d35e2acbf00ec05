// Package errs defines the stable error-code vocabulary and the ServiceError
// carrier used across the API.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is one of the stable, wire-visible error code strings.
type Code string

const (
	AuthRequired        Code = "auth_required"
	AuthInvalid         Code = "auth_invalid"
	AccessDenied        Code = "access_denied"
	Forbidden           Code = "forbidden"
	GraphNotFound       Code = "graph_not_found"
	TaskNotFound        Code = "task_not_found"
	CursorNotFound      Code = "cursor_not_found"
	InvitationNotFound  Code = "invitation_not_found"
	MissingField        Code = "missing_field"
	InvalidStatus       Code = "invalid_status"
	InvalidActivityType Code = "invalid_activity_type"
	MissingBlockedReason Code = "missing_blocked_reason"
	AlreadyClaimed      Code = "already_claimed"
	AlreadyMember       Code = "already_member"
	EpicIDConflict      Code = "epic_id_conflict"
	ServiceUnavailable  Code = "service_unavailable"
	AIServiceNotConfigured Code = "ai_service_not_configured"
	AIServiceError      Code = "ai_service_error"
	InternalError       Code = "internal_error"
	AgentOrTaskNotFound Code = "agent_or_task_not_found"
	Conflict            Code = "conflict"
	TeamNotFound        Code = "team_not_found"
)

// ServiceError is the single error type that carries a stable code, a
// human-readable message, and the HTTP status it maps to.
type ServiceError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code Code, message string, status int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status}
}

func Wrap(code Code, message string, status int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// As extracts a *ServiceError from an error chain, if present.
func As(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// HTTPStatus returns the status code to respond with for err.
func HTTPStatus(err error) int {
	if se := As(err); se != nil {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Constructors, one per named error kind.

func ErrAuthRequired() *ServiceError {
	return New(AuthRequired, "authentication required", http.StatusUnauthorized)
}

func ErrAuthInvalid(err error) *ServiceError {
	return Wrap(AuthInvalid, "invalid authentication credential", http.StatusUnauthorized, err)
}

func ErrAccessDenied() *ServiceError {
	return New(AccessDenied, "access denied", http.StatusForbidden)
}

func ErrForbidden(message string) *ServiceError {
	if message == "" {
		message = "forbidden"
	}
	return New(Forbidden, message, http.StatusForbidden)
}

func ErrGraphNotFound(graphID string) *ServiceError {
	return New(GraphNotFound, "graph not found", http.StatusNotFound).WithDetails("graphId", graphID)
}

func ErrTaskNotFound(taskID string) *ServiceError {
	return New(TaskNotFound, "task not found", http.StatusNotFound).WithDetails("taskId", taskID)
}

func ErrCursorNotFound(cursorID string) *ServiceError {
	return New(CursorNotFound, "cursor not found", http.StatusNotFound).WithDetails("cursorId", cursorID)
}

func ErrTeamNotFound(teamID string) *ServiceError {
	return New(TeamNotFound, "team not found", http.StatusNotFound).WithDetails("teamId", teamID)
}

func ErrInvitationNotFound() *ServiceError {
	return New(InvitationNotFound, "invitation not found", http.StatusNotFound)
}

func ErrMissingField(field string) *ServiceError {
	return New(MissingField, "missing required field", http.StatusBadRequest).WithDetails("field", field)
}

func ErrInvalidStatus(status string) *ServiceError {
	return New(InvalidStatus, "invalid status value", http.StatusBadRequest).WithDetails("status", status)
}

func ErrInvalidActivityType(activityType string) *ServiceError {
	return New(InvalidActivityType, "invalid activity type", http.StatusBadRequest).WithDetails("type", activityType)
}

func ErrMissingBlockedReason() *ServiceError {
	return New(MissingBlockedReason, "reason is required when status is blocked", http.StatusBadRequest)
}

func ErrAlreadyClaimed(taskID string) *ServiceError {
	return New(AlreadyClaimed, "task is already claimed", http.StatusConflict).WithDetails("taskId", taskID)
}

func ErrAlreadyMember(role string) *ServiceError {
	return New(AlreadyMember, "user is already a team member", http.StatusConflict).WithDetails("role", role)
}

func ErrEpicIDConflict(suggestedID string) *ServiceError {
	return New(EpicIDConflict, "epic id already exists", http.StatusConflict).WithDetails("suggestedId", suggestedID)
}

func ErrServiceUnavailable(err error) *ServiceError {
	return Wrap(ServiceUnavailable, "graph store unavailable", http.StatusServiceUnavailable, err)
}

func ErrAIServiceNotConfigured() *ServiceError {
	return New(AIServiceNotConfigured, "AI service is not configured", http.StatusServiceUnavailable)
}

func ErrAIServiceError(err error) *ServiceError {
	return Wrap(AIServiceError, "AI service call failed", http.StatusBadGateway, err)
}

func ErrInternal(err error) *ServiceError {
	return Wrap(InternalError, "internal error", http.StatusInternalServerError, err)
}

func ErrAgentOrTaskNotFound() *ServiceError {
	return New(AgentOrTaskNotFound, "agent or task not found", http.StatusNotFound)
}

func ErrConflict(message string) *ServiceError {
	return New(Conflict, message, http.StatusConflict)
}
