package server

import (
	"github.com/gin-gonic/gin"
	"github.com/latoulicious/arise-companion/pkg/apperror"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// abortWithError writes err with the status of its kind. Unclassified errors
// are logged and reported with a generic message.
func (s *Server) abortWithError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindUnknown {
		s.logger.Error("Request failed", err, map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
	}
	c.AbortWithStatusJSON(apperror.HTTPStatus(kind), ErrorResponse{
		Error: apperror.Message(err),
		Code:  string(kind),
	})
}

func badRequest(message string) error {
	return apperror.Validation(message)
}
