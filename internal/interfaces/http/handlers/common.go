// Package handlers implements the HTTP handlers for the recommendation API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error onto its HTTP status and writes the
// standard error body.  Server-side failures are masked.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code), Message: err.Error()}
	if status >= http.StatusInternalServerError {
		resp = ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: "internal server error",
		}
	}
	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the request body, translating decode failures into the
// standard error shape.
func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return false
	}
	return true
}
