package handler

import (
	"errors"
	"net/http"

	"github.com/yumyai/blastview/logger"
	"github.com/yumyai/blastview/pkg/db"
	"github.com/yumyai/blastview/pkg/middle"
	"github.com/yumyai/blastview/pkg/model"
	"go.uber.org/zap"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrBlockNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger carries the request_id field when RequestIDMiddleware ran.
func requestLogger(r *http.Request) *zap.Logger {
	return middle.LoggerFrom(r.Context(), logger.L())
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestLogger(r).Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "Internal Server Error", status)
		return
	}
	requestLogger(r).Debug("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, err.Error(), status)
}
