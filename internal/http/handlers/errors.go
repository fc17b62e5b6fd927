// Package handlers defines the HTTP error codes returned in ErrorResponse.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, the rest name
// the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "idea not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeCreateFailed    = "create_failed"
	ErrCodeVoteFailed      = "vote_failed"
	ErrCodeListFailed      = "list_failed"
	ErrCodeSentenceTooLong = "sentence_too_long"
	ErrCodeCategoryTooLong = "category_too_long"
)
