package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/token"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	store  store.IShopStore
	maker  token.Maker
	logger *zerolog.Logger
}

func NewAuthHandler(s store.IShopStore, maker token.Maker, logger *zerolog.Logger) *AuthHandler {
	if s == nil {
		panic("shop store cannot be nil")
	}
	if maker == nil {
		panic("token maker cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &AuthHandler{store: s, maker: maker, logger: logger}
}

// roleFor 測試環境的慣例：email 含 admin 的帳號為管理員
func roleFor(email string) string {
	if strings.Contains(strings.ToLower(email), "admin") {
		return string(constants.RoleAdmin)
	}
	return string(constants.RoleCustomer)
}

// @Summary register new account
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, constants.MsgMissingFields)
		return
	}
	if len(req.Password) < constants.MinPasswordLength {
		response.Error(w, http.StatusBadRequest, constants.MsgPasswordTooShort)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		response.Error(w, http.StatusBadRequest, constants.MsgInvalidEmail)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error().Err(err).Msg("hash password failed")
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	err = h.store.CreateUser(r.Context(), store.UserRecord{
		Name:         req.Name,
		Email:        req.Email,
		Role:         roleFor(req.Email),
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			response.Error(w, http.StatusBadRequest, "Usuario ya registrado")
			return
		}
		storeError(w, h.logger, err, "")
		return
	}
	response.JSON(w, http.StatusOK, model.MessageResponse{Message: "Usuario creado"})
}

// @Summary login with email or name
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, constants.MsgMissingCredentials)
		return
	}

	rec, err := h.store.FindUser(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusUnauthorized, "Credenciales incorrectas")
			return
		}
		storeError(w, h.logger, err, "")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(req.Password)) != nil {
		response.Error(w, http.StatusUnauthorized, "Credenciales incorrectas")
		return
	}

	user := rec.User()
	tok, err := h.maker.CreateToken(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("create token failed")
		response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	response.JSON(w, http.StatusOK, model.LoginResponse{
		AccessToken: tok,
		TokenType:   "bearer",
		User:        user,
	})
}
