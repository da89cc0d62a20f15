package handler

import (
	"net/http"

	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

type ScratchHandler struct {
	scratchService service.ScratchService
}

func NewScratchHandler(scratchService service.ScratchService) *ScratchHandler {
	return &ScratchHandler{scratchService: scratchService}
}

func (h *ScratchHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/scratch/messages", h.list).Methods("GET", "OPTIONS")
	router.HandleFunc("/scratch/messages", h.send).Methods("POST", "OPTIONS")
	router.HandleFunc("/scratch/messages", h.clear).Methods("DELETE", "OPTIONS")
}

// @Summary Scratch messages
// @Description Shared flat feed ordered by timestamp
// @ID scratch-list
// @Tags scratch
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.ScratchMessage
// @Router /scratch/messages [get]
func (h *ScratchHandler) list(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.scratchService.List(r.Context())
	if err != nil {
		responseServiceError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusOK, msgs)
}

// @Summary Send scratch message
// @ID scratch-send
// @Tags scratch
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param data body SendMessageRequest true "Message"
// @Success 201 {object} model.ScratchMessage
// @Failure 400 {object} response.ErrorResponse
// @Router /scratch/messages [post]
func (h *ScratchHandler) send(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var request SendMessageRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	msg, err := h.scratchService.SendTextMessage(r.Context(), session.User.ID, request.Content)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}
	httputils.ResponseJSON(w, http.StatusCreated, msg)
}

// @Summary Clear scratch feed
// @ID scratch-clear
// @Tags scratch
// @Security BearerAuth
// @Success 204
// @Router /scratch/messages [delete]
func (h *ScratchHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.scratchService.Clear(r.Context()); err != nil {
		responseServiceError(w, r, err)
		return
	}
	httputils.ResponseNoContent(w)
}
