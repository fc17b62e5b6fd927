// Package handlers provides the HTTP handlers of the idea board.
//
// This file holds the response helpers shared by every endpoint. Each handler
// answers in the format the client prefers: HTML (a full page or an htmx
// fragment) by default, JSON when the Accept header ranks application/json
// first. Errors follow the same rule: a JSON ErrorResponse envelope, or the
// error.html fragment retargeted to the page's #errors slot for htmx.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "idea not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-idea-board/internal/http/middleware"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"idea not found"`
}

// wantsJSON reports whether the client ranks JSON above HTML.
func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("request failed")
	}

	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, resp)
		return
	}
	if isHTMX(c) {
		c.Header("HX-Retarget", "#errors")
		c.Header("HX-Reswap", "innerHTML")
	}
	c.HTML(status, "error.html", resp)
	c.Abort()
}

// Fail is the exported variant of fail() for the router's fallback routes.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// render writes html through the named template, or json for JSON clients.
func render(c *gin.Context, status int, name string, html, json any) {
	if wantsJSON(c) {
		c.JSON(status, json)
		return
	}
	c.HTML(status, name, html)
}
