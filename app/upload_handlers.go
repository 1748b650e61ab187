package poolchat

import (
	"errors"
	"net/http"

	"poolchat/core"
	"poolchat/pkg/router"
)

type UploadHandler struct {
	store   core.MediaStore
	maxSize int64
}

func NewUploadHandler(store core.MediaStore, maxSize int64) *UploadHandler {
	return &UploadHandler{store: store, maxSize: maxSize}
}

type UploadResponse struct {
	MediaURL string `json:"mediaUrl"`
}

// UploadHandler accepts a multipart form with a "media" field and returns the
// URL path the stored asset is served under.
func (h *UploadHandler) UploadHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)

	file, header, err := r.FormFile("media")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return router.NewJsonError(http.StatusRequestEntityTooLarge, "upload too large")
		}
		return router.NewJsonError(http.StatusBadRequest, "missing media field")
	}
	defer file.Close()

	mediaURL, err := h.store.StoreMedia(file, header.Filename)
	if err != nil {
		return err
	}

	return router.WriteJson(w, http.StatusCreated, UploadResponse{MediaURL: mediaURL})
}
