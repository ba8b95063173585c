package utils

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body shape shared by every JSON response of the API
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// JSONError sends a structured error response. The detailed error stays in the
// body for clients and is attached to the gin context for the request logger.
func JSONError(c *gin.Context, status int, err error, message string) {
	env := Envelope{Status: status, Message: message}
	if err != nil {
		env.Error = err.Error()
		_ = c.Error(err)
	}
	c.JSON(status, env)
}
