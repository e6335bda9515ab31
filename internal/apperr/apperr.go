// Package apperr holds the error kinds the task tracker reports to clients.
//
// Every error carries a Kind and a user-facing message. errors.Is matches on
// the kind only, so a detailed error such as UserNotFoundID(7) still satisfies
// errors.Is(err, ErrUserNotFound).
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAlreadyAuthenticated
	KindEmailAlreadyTaken
	KindInvalidCredentials
	KindUserNotFound
	KindTaskNotFound
	KindCommentNotFound
	KindUserIsNotAdmin
	KindUnauthorized
	KindTaskCreation
	KindUnauthenticated
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAlreadyAuthenticated:
		return "already_authenticated"
	case KindEmailAlreadyTaken:
		return "email_already_taken"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUserNotFound:
		return "user_not_found"
	case KindTaskNotFound:
		return "task_not_found"
	case KindCommentNotFound:
		return "comment_not_found"
	case KindUserIsNotAdmin:
		return "user_is_not_admin"
	case KindUnauthorized:
		return "unauthorized"
	case KindTaskCreation:
		return "task_creation"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrValidation           = New(KindValidation, "validation failed")
	ErrAlreadyAuthenticated = New(KindAlreadyAuthenticated, "you are already authenticated")
	ErrEmailAlreadyTaken    = New(KindEmailAlreadyTaken, "email is already taken")
	ErrInvalidCredentials   = New(KindInvalidCredentials, "invalid email or password")
	ErrUserNotFound         = New(KindUserNotFound, "user does not exist")
	ErrTaskNotFound         = New(KindTaskNotFound, "task does not exist")
	ErrCommentNotFound      = New(KindCommentNotFound, "comment does not exist")
	ErrUserIsNotAdmin       = New(KindUserIsNotAdmin, "user is not an administrator")
	ErrUnauthorized         = New(KindUnauthorized, "you do not have permission to perform this operation")
	ErrTaskCreation         = New(KindTaskCreation, "no assignee found for the task")
	ErrUnauthenticated      = New(KindUnauthenticated, "you are not authenticated, please log in")
)

// Unauthorized returns an Unauthorized error with an operation-specific message.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func UserNotFoundID(id int64) *Error {
	return New(KindUserNotFound, fmt.Sprintf("user with id %d not found", id))
}

func TaskNotFoundID(id int64) *Error {
	return New(KindTaskNotFound, fmt.Sprintf("task with id %d not found", id))
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
