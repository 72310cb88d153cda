package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeValidation        = 40001
	CodeEmailExists       = 40002
	CodeUnauthorized      = 40100
	CodeInvalidCredential = 40101
	CodeSessionNotFound   = 40401
	CodeInternalServer    = 50000
	CodeUnavailable       = 50300
)

type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string      `json:"message"`
	Session interface{} `json:"session,omitempty"`
}

// OK writes data as the body without an envelope.
func OK(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Message(c *gin.Context, message string, session interface{}) {
	c.JSON(200, MessageResponse{
		Message: message,
		Session: session,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func ValidationFailed(c *gin.Context, fieldErrors interface{}) {
	c.JSON(400, ErrorResponse{
		Code:    CodeValidation,
		Message: "validation failed",
		Errors:  fieldErrors,
	})
}
