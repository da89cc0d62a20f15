package handler

import (
	"errors"
	"log"
	"net/http"

	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"
)

type PongResponse struct {
	Message string `json:"message"`
}

// Ping
// @Summary Пингануть сервер
// @Description Пингануть сервер
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, PongResponse{Message: "Pong"})
}

// errorStatus сопоставляет ошибки сервисов с HTTP статусами.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrEmptyMessage),
		errors.Is(err, service.ErrInvalidFile),
		errors.Is(err, service.ErrInvalidFileID):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrChatNotFound),
		errors.Is(err, service.ErrNotMember):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrFileIDInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// responseServiceError: внутренние ошибки логируются и скрываются за ErrUnknown.
func responseServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		httputils.ResponseError(w, status, service.ErrUnknown.Error())
		return
	}
	httputils.ResponseError(w, status, err.Error())
}
