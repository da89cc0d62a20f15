package handler

import (
	"net/http"
	"strconv"
	"time"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/pkg/storage"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

const maxUploadSize = 32 << 20

type MessageHandler struct {
	chatService    service.ChatService
	messageService service.MessageService
}

func NewMessageHandler(chatService service.ChatService, messageService service.MessageService) *MessageHandler {
	return &MessageHandler{chatService: chatService, messageService: messageService}
}

func (h *MessageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chats/{id}/messages", h.getMessages).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/{id}/messages", h.sendMessage).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}/files", h.sendFile).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}/captions/{fileId}", h.storeCaption).Methods("PUT", "OPTIONS")
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type CaptionRequest struct {
	Caption string `json:"caption"`
}

// @Summary Get messages
// @Description Page of messages ordered by timestamp ascending
// @ID get-messages
// @Tags messages
// @Security BearerAuth
// @Produce json
// @Param id path string true "Chat ID"
// @Param before query string false "RFC3339 time or unix millis; only older messages"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {array} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/messages [get]
func (h *MessageHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}

	before, err := parseTime(r.URL.Query().Get("before"))
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid before parameter")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.messageService.GetMessages(r.Context(), chatID, before, limit)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}

// @Summary Send message
// @Description Send a text message to the chat
// @ID send-message
// @Tags messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param MessageData body SendMessageRequest true "Message Data"
// @Success 201 {object} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/messages [post]
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}
	session, _ := SessionFromContext(r.Context())

	var request SendMessageRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	msg, err := h.messageService.SendTextMessage(r.Context(), chatID, session.User.ID, session.User.DisplayName, request.Content)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, msg)
}

// @Summary Send file
// @Description Upload a file and post it as an image or file message
// @ID send-file
// @Tags messages
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Chat ID"
// @Param file formData file true "File"
// @Param fileId formData string false "File id; generated when empty"
// @Param isImage formData bool false "Image message; guessed from extension when empty"
// @Success 201 {object} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /chats/{id}/files [post]
func (h *MessageHandler) sendFile(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}
	session, _ := SessionFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, service.ErrInvalidFile.Error())
		return
	}
	defer file.Close()

	isImage := storage.IsImage(header.Filename)
	if v := r.FormValue("isImage"); v != "" {
		if isImage, err = strconv.ParseBool(v); err != nil {
			httputils.ResponseError(w, http.StatusBadRequest, "invalid isImage value")
			return
		}
	}

	upload := model.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	msg, err := h.messageService.SendFile(r.Context(), chatID, session.User.ID, session.User.DisplayName,
		r.FormValue("fileId"), upload, isImage)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, msg)
}

// @Summary Store caption
// @Description Create or overwrite the caption of an image
// @ID store-caption
// @Tags messages
// @Security BearerAuth
// @Accept json
// @Param id path string true "Chat ID"
// @Param fileId path string true "File ID"
// @Param data body CaptionRequest true "Caption"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/captions/{fileId} [put]
func (h *MessageHandler) storeCaption(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}

	var request CaptionRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := h.messageService.StoreImageCaption(r.Context(), chatID, mux.Vars(r)["fileId"], request.Caption); err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseNoContent(w)
}

// parseTime принимает RFC3339 или unix millis; пустая строка дает нулевое время.
func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
