package handler

import (
	"context"
	"net/http"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/chats", h.getChats).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats", h.createChat).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}", h.getChat).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/{id}/name", h.updateName).Methods("PUT", "OPTIONS")
	router.HandleFunc("/chats/{id}/join", h.joinChat).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}/members", h.addMember).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}/members/{memberId}", h.removeMember).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/chats/{id}/administrators/{memberId}", h.promoteMember).Methods("POST", "OPTIONS")
	router.HandleFunc("/chats/{id}/administrators/{memberId}", h.demoteMember).Methods("DELETE", "OPTIONS")
}

type CreateChatResponse struct {
	ID string `json:"id"`
}

type ChatNameRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	// email или id пользователя
	Identifier string `json:"identifier"`
}

// @Summary Get chats
// @Description Chat rooms of the current user, most recent first
// @ID get-chats
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.ChatRoom
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chats [get]
func (h *ChatHandler) getChats(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	rooms, err := h.chatService.GetChatsForUser(r.Context(), session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, rooms)
}

// @Summary Create chat
// @Description Create a chat room with the current user as its only member and administrator
// @ID create-chat
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Success 201 {object} CreateChatResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chats [post]
func (h *ChatHandler) createChat(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	id, err := h.chatService.CreateChatRoom(r.Context(), session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, CreateChatResponse{ID: id})
}

// @Summary Get chat
// @Description Chat room with resolved member names
// @ID get-chat
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} model.ChatRoom
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id} [get]
func (h *ChatHandler) getChat(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	room, err := h.chatService.RequireMember(r.Context(), mux.Vars(r)["id"], session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, room)
}

// @Summary Rename chat
// @ID rename-chat
// @Tags chats
// @Security BearerAuth
// @Accept json
// @Param id path string true "Chat ID"
// @Param data body ChatNameRequest true "New name"
// @Success 204
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/name [put]
func (h *ChatHandler) updateName(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var request ChatNameRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	if err := h.chatService.UpdateChatName(r.Context(), chatID, request.Name); err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseNoContent(w)
}

// @Summary Join chat
// @Description Add the current user to the chat room
// @ID join-chat
// @Tags chats
// @Security BearerAuth
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} model.Member
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id}/join [post]
func (h *ChatHandler) joinChat(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	member, err := h.chatService.JoinChatRoom(r.Context(), mux.Vars(r)["id"], session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, member)
}

// @Summary Add member
// @Description Add a user by email or id
// @ID add-member
// @Tags chats
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Chat ID"
// @Param data body AddMemberRequest true "User email or id"
// @Success 200 {object} model.Member
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id}/members [post]
func (h *ChatHandler) addMember(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var request AddMemberRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	member, err := h.chatService.AddChatMember(r.Context(), chatID, request.Identifier)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, member)
}

// @Summary Remove member
// @Description Administrators remove anyone; members may remove themselves
// @ID remove-member
// @Tags chats
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id}/members/{memberId} [delete]
func (h *ChatHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)

	room, err := h.chatService.RequireMember(r.Context(), vars["id"], session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}
	if vars["memberId"] != session.User.ID && !room.IsAdmin(session.User.ID) {
		responseServiceError(w, r, service.ErrForbidden)
		return
	}

	if err := h.chatService.RemoveChatMember(r.Context(), room.ID, vars["memberId"]); err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseNoContent(w)
}

// @Summary Promote member
// @ID promote-member
// @Tags chats
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id}/administrators/{memberId} [post]
func (h *ChatHandler) promoteMember(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, h.chatService.PromoteChatMember)
}

// @Summary Demote member
// @ID demote-member
// @Tags chats
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{id}/administrators/{memberId} [delete]
func (h *ChatHandler) demoteMember(w http.ResponseWriter, r *http.Request) {
	h.setAdmin(w, r, h.chatService.DemoteChatMember)
}

func (h *ChatHandler) setAdmin(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, chatID, memberID string) error) {
	chatID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), chatID, mux.Vars(r)["memberId"]); err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseNoContent(w)
}

func (h *ChatHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	return requireRoom(w, r, h.chatService.RequireAdmin)
}

// requireRoom проверяет доступ текущего пользователя к комнате из {id}.
func requireRoom(
	w http.ResponseWriter,
	r *http.Request,
	check func(ctx context.Context, chatID, userID string) (*model.ChatRoom, error),
) (string, bool) {
	session, ok := currentSession(w, r)
	if !ok {
		return "", false
	}

	room, err := check(r.Context(), mux.Vars(r)["id"], session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return "", false
	}
	return room.ID, true
}
