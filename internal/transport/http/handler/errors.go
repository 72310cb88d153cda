package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellnesshub/internal/app"
	"wellnesshub/internal/logger"
	"wellnesshub/internal/transport/http/middleware"
	"wellnesshub/internal/transport/http/response"
)

// writeError maps service errors onto the HTTP error contract. Anything not
// recognised is logged and reported as a generic server error.
func writeError(c *gin.Context, log *slog.Logger, err error, action string) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationFailed(c, verr.Fields)
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, "Session not found")
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, "User already exists")
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredential, "Invalid credentials")
	case errors.Is(err, app.ErrAssetsDisabled):
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, err.Error())
	default:
		log.ErrorContext(c.Request.Context(), action+" failed",
			logger.Error(err), logger.RequestID(middleware.GetRequestID(c)))
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Server error")
	}
}

func getUserIDFromContext(c *gin.Context) (string, bool) {
	return middleware.CurrentUserID(c)
}

func invalidPayload(c *gin.Context) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
}

func unauthorized(c *gin.Context) {
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
}
