package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/service"
	"tush00nka/captionchat/internal/ws"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	hub            *ws.Hub
	upgrader       *websocket.Upgrader
	chatService    service.ChatService
	messageService service.MessageService
	scratchService service.ScratchService
}

func NewWSHandler(
	hub *ws.Hub,
	upgrader *websocket.Upgrader,
	chatService service.ChatService,
	messageService service.MessageService,
	scratchService service.ScratchService,
) *WSHandler {
	return &WSHandler{
		hub:            hub,
		upgrader:       upgrader,
		chatService:    chatService,
		messageService: messageService,
		scratchService: scratchService,
	}
}

func (h *WSHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/chats", h.userChats).Methods("GET")
	router.HandleFunc("/ws/chats/{id}/messages", h.chatMessages).Methods("GET")
	router.HandleFunc("/ws/scratch", h.scratch).Methods("GET")
	router.HandleFunc("/ws/stats", h.stats).Methods("GET", "OPTIONS")
}

// subscribeFunc подписывает клиента; события отправляются через client.SendJSON.
type subscribeFunc func(client *ws.Client) (service.Subscription, error)

// @Summary Room list stream
// @Description WebSocket: full room list on every change
// @ID ws-chats
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 101
// @Router /ws/chats [get]
func (h *WSHandler) userChats(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	h.serve(w, r, session.User.ID, realtime.UserChatsTopic(session.User.ID), func(c *ws.Client) (service.Subscription, error) {
		return h.chatService.SubscribeUserChats(c.Context(), session.User.ID, func(rooms []model.ChatRoom) {
			c.SendJSON(ws.NewEvent(ws.EventTypeChats, rooms))
		})
	})
}

// @Summary Message window stream
// @Description WebSocket: latest window of messages on every change
// @ID ws-messages
// @Tags realtime
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param window query int false "Window size (default 25, max 200)"
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 101
// @Failure 403 {object} response.ErrorResponse
// @Router /ws/chats/{id}/messages [get]
func (h *WSHandler) chatMessages(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}
	session, _ := SessionFromContext(r.Context())
	window, _ := strconv.Atoi(r.URL.Query().Get("window"))

	userID := session.User.ID

	h.serve(w, r, userID, realtime.ChatMessagesTopic(chatID), func(c *ws.Client) (service.Subscription, error) {
		return h.messageService.SubscribeChatMessages(c.Context(), chatID, window, func(msgs []model.Message) {
			// участника могли удалить после открытия сокета
			if _, err := h.chatService.RequireMember(c.Context(), chatID, userID); err != nil {
				switch {
				case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrChatNotFound):
					c.Finish(ws.ErrorEvent(err.Error()))
				case c.Context().Err() == nil:
					log.Printf("ws membership check for %s in %s failed: %v", userID, chatID, err)
				}
				return
			}
			c.SendJSON(ws.NewEvent(ws.EventTypeMessages, msgs))
		})
	})
}

// @Summary Scratch feed stream
// @ID ws-scratch
// @Tags realtime
// @Security BearerAuth
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 101
// @Router /ws/scratch [get]
func (h *WSHandler) scratch(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	h.serve(w, r, session.User.ID, realtime.ScratchTopic, func(c *ws.Client) (service.Subscription, error) {
		return h.scratchService.Subscribe(c.Context(), func(msgs []model.ScratchMessage) {
			c.SendJSON(ws.NewEvent(ws.EventTypeScratch, msgs))
		})
	})
}

// @Summary WebSocket stats
// @ID ws-stats
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ws.StatsSnapshot
// @Router /ws/stats [get]
func (h *WSHandler) stats(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, h.hub.Stats())
}

func (h *WSHandler) serve(w http.ResponseWriter, r *http.Request, userID, topic string, subscribe subscribeFunc) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(r.Context(), conn, userID, topic)
	if !h.hub.Register(client) {
		client.Close()
		return
	}
	defer h.hub.Unregister(client)

	sub, err := subscribe(client)
	if err != nil {
		log.Printf("ws subscribe %s failed: %v", topic, err)
		client.Fail(ws.ErrorEvent("subscription failed"))
		return
	}
	defer sub.Unsubscribe()

	go func() {
		if err := client.WritePump(); err != nil {
			log.Printf("ws client %s write error: %v", userID, err)
		}
	}()
	client.ReadPump()
}
