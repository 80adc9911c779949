package controllers

import (
	"errors"
	"net/http"

	"toolbank/apperr"

	"github.com/gin-gonic/gin"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.ToolNotFound, apperr.NeighborNotFound, apperr.LoanNotFound:
		return http.StatusNotFound
	case apperr.DuplicateDocument, apperr.ToolUnavailable, apperr.ToolAlreadyLoaned,
		apperr.AlreadyReturned, apperr.HasActiveLoans:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error body {"error","kind","details"}. Storage failures
// are logged through the request logger and not echoed to the client.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = &apperr.Error{Kind: apperr.Storage, Message: "internal error", Err: err}
	}
	status := statusOf(ae.Kind)

	body := gin.H{"error": ae.Message, "kind": ae.Kind}
	if ae.Kind == apperr.Storage {
		body["error"] = "internal error"
	}
	if len(ae.Details) > 0 {
		body["details"] = ae.Details
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	fail(c, apperr.Invalid(msg))
}
