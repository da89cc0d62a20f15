package handler

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"net/http"

	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

type CatalogHandler struct {
	chatService    service.ChatService
	catalogService service.CatalogService
}

func NewCatalogHandler(chatService service.ChatService, catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{chatService: chatService, catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/catalogs", h.getCatalogs).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/{id}/gallery", h.getGallery).Methods("GET", "OPTIONS")
	router.HandleFunc("/chats/{id}/gallery/download", h.download).Methods("POST", "OPTIONS")
}

type DownloadRequest struct {
	Keys []string `json:"keys"`
}

// @Summary Catalogs
// @Description Latest image of every chat room of the current user
// @ID get-catalogs
// @Tags gallery
// @Security BearerAuth
// @Produce json
// @Success 200 {array} model.CatalogEntry
// @Failure 401 {object} response.ErrorResponse
// @Router /catalogs [get]
func (h *CatalogHandler) getCatalogs(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	entries, err := h.catalogService.GetCatalogsData(r.Context(), session.User.ID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, entries)
}

// @Summary Gallery
// @Description All png/jpg images of the chat room with captions
// @ID get-gallery
// @Tags gallery
// @Security BearerAuth
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {array} model.GalleryImage
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/gallery [get]
func (h *CatalogHandler) getGallery(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}

	images, err := h.catalogService.ListAllImages(r.Context(), chatID)
	if err != nil {
		responseServiceError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, images)
}

// @Summary Download selected
// @Description Zip archive of the selected files; unreadable files are skipped
// @ID download-gallery
// @Tags gallery
// @Security BearerAuth
// @Accept json
// @Produce application/zip
// @Param id path string true "Chat ID"
// @Param data body DownloadRequest true "Storage keys"
// @Success 200
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /chats/{id}/gallery/download [post]
func (h *CatalogHandler) download(w http.ResponseWriter, r *http.Request) {
	chatID, ok := requireRoom(w, r, h.chatService.RequireMember)
	if !ok {
		return
	}

	var request DownloadRequest
	if err := httputils.DecodeJSON(r, &request); err != nil || len(request.Keys) == 0 {
		httputils.ResponseError(w, http.StatusBadRequest, "keys are required")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", chatID+".zip"))
	w.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(w)
	n, err := h.catalogService.DownloadSelected(r.Context(), chatID, request.Keys, func(name string, src io.Reader) error {
		dst, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		log.Printf("download %s: aborted after %d files: %v", chatID, n, err)
	}
	if err := zw.Close(); err != nil {
		log.Printf("download %s: failed to finish archive: %v", chatID, err)
	}
}
