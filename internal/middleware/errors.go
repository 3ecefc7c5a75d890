package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ServerErrorResponse is the body of every 500 response. Error carries the
// underlying detail in development mode and an empty object otherwise.
type ServerErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   any    `json:"error"`
}

const serverErrorMessage = "Internal server error"

// ErrorHandler logs errors attached with c.Error and, if the handler has not
// written a response yet, renders them as a generic 500. Panics are recovered
// into the same response.
func ErrorHandler(development bool, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				logger.WithFields(requestFields(c)).WithError(err).Error("request panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, serverError(err, development))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		logger.WithFields(requestFields(c)).WithError(err).Error("request failed")
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, serverError(err, development))
	}
}

func serverError(err error, development bool) ServerErrorResponse {
	resp := ServerErrorResponse{
		Success: false,
		Message: serverErrorMessage,
		Error:   struct{}{},
	}
	if development {
		resp.Error = err.Error()
	}
	return resp
}

func requestFields(c *gin.Context) log.Fields {
	return log.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}
}
