package handler

import (
	"net/http"
	"strings"

	"tush00nka/captionchat/internal/pkg/caption"
	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"

	"github.com/gorilla/mux"
)

type CaptionHandler struct {
	captioner service.Captioner
}

func NewCaptionHandler(captioner service.Captioner) *CaptionHandler {
	return &CaptionHandler{captioner: captioner}
}

func (h *CaptionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/caption", h.captionUpload).Methods("POST", "OPTIONS")
	router.HandleFunc("/caption/image", h.captionImage).Methods("POST", "OPTIONS")
}

type FileCaptionResponse struct {
	FileID  string `json:"fileId"`
	Caption string `json:"caption"`
}

type CaptionResponse struct {
	Caption string `json:"caption"`
}

// @Summary Caption upload
// @Description Generate a caption for an uploaded image and echo its file id
// @ID caption-upload
// @Tags caption
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file-input formData file true "Image"
// @Param file-id-container formData string true "File ID"
// @Success 200 {object} FileCaptionResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /caption [post]
func (h *CaptionHandler) captionUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file-input")
	if err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	fileID := r.FormValue("file-id-container")
	if fileID == "" {
		httputils.ResponseError(w, http.StatusBadRequest, "file id is required")
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, FileCaptionResponse{
		FileID:  fileID,
		Caption: h.captioner.Caption(r.Context(), file),
	})
}

// @Summary Caption image
// @Description Generate a caption for an uploaded image or a remote image URL
// @ID caption-image
// @Tags caption
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Image"
// @Param imageUrl formData string false "Remote image URL"
// @Success 200 {object} CaptionResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /caption/image [post]
func (h *CaptionHandler) captionImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httputils.ResponseError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
	}

	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		httputils.ResponseJSON(w, http.StatusOK, CaptionResponse{Caption: h.captioner.Caption(r.Context(), file)})
		return
	}

	imageURL := strings.TrimSpace(r.FormValue("imageUrl"))
	if imageURL == "" {
		httputils.ResponseError(w, http.StatusBadRequest, "No image provided")
		return
	}

	if err := caption.CheckImageURL(imageURL); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, err.Error())
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, CaptionResponse{Caption: h.captioner.CaptionURL(r.Context(), imageURL)})
}
