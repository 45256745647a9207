package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/joseph-ayodele/doctext/internal/common"
)

// httpStatus maps the error taxonomy onto HTTP through its gRPC code.
func httpStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch common.GRPCCode(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unimplemented:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// message is the client-facing text for err. Internal failures are not described.
func message(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (s *Server) fail(c *gin.Context, err error) {
	status := httpStatus(err)
	log := common.LoggerFrom(c.Request.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	} else {
		log.Info("request rejected", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message(err, status)})
}
