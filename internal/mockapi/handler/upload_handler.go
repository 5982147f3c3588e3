package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/upload"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 5 << 20

type UploadHandler struct {
	images upload.IImageStore
	logger *zerolog.Logger
}

func NewUploadHandler(images upload.IImageStore, logger *zerolog.Logger) *UploadHandler {
	if images == nil {
		panic("image store cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &UploadHandler{images: images, logger: logger}
}

// @Summary upload product image, admin only
// @Accept multipart/form-data
// @Router /upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Archivo requerido")
		return
	}
	defer file.Close()

	name, err := h.images.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, upload.ErrUnsupportedType) {
			response.Error(w, http.StatusBadRequest, "Tipo de archivo no permitido")
			return
		}
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("save image failed")
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.JSON(w, http.StatusOK, model.UploadResponse{URL: constants.StaticImagePath + name})
}

// @Router /static/images/{name} [get]
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rc, err := h.images.Open(name)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Imagen no encontrada")
			return
		}
		h.logger.Error().Err(err).Str("name", name).Msg("open image failed")
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
