package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/pkg/storage"

	"github.com/gorilla/mux"
)

// FileHandler раздает объекты хранилища при STORE_DRIVER=memory; для S3 ссылки presigned.
type FileHandler struct {
	files storage.FileStore
}

func NewFileHandler(files storage.FileStore) *FileHandler {
	return &FileHandler{files: files}
}

func (h *FileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/files/{key:.+}", h.getFile).Methods("GET", "OPTIONS")
}

func (h *FileHandler) getFile(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	rc, err := h.files.Open(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		httputils.ResponseError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		httputils.ResponseError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}
