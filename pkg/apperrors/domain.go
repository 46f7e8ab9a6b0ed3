package apperrors

import (
	"net/http"
)

// Factories and predeclared errors for the talk-portal domain.
//
// Anything touching capability keys or management rights collapses to
// NOT_FOUND: a wrong key, a missing talk and an unauthorized delete are
// indistinguishable from the outside.

// ErrNotFound converts a repository miss into a 404.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrTalkNotFound covers bad talk ids, key mismatches and unauthorized
// management attempts alike.
var ErrTalkNotFound = New(
	CodeNotFound,
	"talk",
	"Not found",
	http.StatusNotFound,
)

var ErrCommentNotFound = New(
	CodeNotFound,
	"comment",
	"Not found",
	http.StatusNotFound,
)

var ErrSubmissionNotFound = New(
	CodeNotFound,
	"submission",
	"Not found",
	http.StatusNotFound,
)

// ErrSubmissionGone marks a submission row whose backing file is missing.
var ErrSubmissionGone = New(
	CodeNotFound,
	"submission",
	"Submission file is no longer available",
	http.StatusGone,
)

// ErrFileTooLarge rejects uploads above the configured maximum.
var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

// ErrInvalidFileType rejects anything that is not a PDF.
var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"Only PDF submissions are accepted",
	http.StatusBadRequest,
)

var ErrEmptyFilename = New(
	CodeValidationFailed,
	"validation",
	"Uploaded file must have a name",
	http.StatusBadRequest,
)

var ErrInvalidComment = New(
	CodeValidationFailed,
	"comment",
	"Name, email and comment text are required",
	http.StatusBadRequest,
)

var ErrInvalidCommentEmail = New(
	CodeValidationFailed,
	"comment",
	"A valid email address is required",
	http.StatusBadRequest,
)

// ErrInvalidParentComment rejects replies to comments that do not exist
// on the same talk.
var ErrInvalidParentComment = New(
	CodeValidationFailed,
	"comment",
	"Parent comment does not exist on this talk",
	http.StatusBadRequest,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidAuthToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"user",
	"Email already in use",
	http.StatusConflict,
)
