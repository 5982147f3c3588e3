package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "ID inválido")
		return 0, false
	}
	return id, true
}

// storeError 把 store 錯誤轉成 http 回應，其他錯誤一律 500
func storeError(w http.ResponseWriter, logger *zerolog.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrDuplicate):
		response.Error(w, http.StatusBadRequest, "Ya existe")
	default:
		logger.Error().Err(err).Msg("store operation failed")
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
