package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/response"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/token"
)

const (
	authorizationHeaderKey  = "Authorization"
	authorizationTypeBearer = "bearer"
)

type holderKey struct{}

// userHolder 讓外層的 logger 取得內層驗證出的使用者
type userHolder struct {
	mu   sync.Mutex
	user *model.User
}

func (h *userHolder) set(u *model.User) {
	h.mu.Lock()
	h.user = u
	h.mu.Unlock()
}

func (h *userHolder) email() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.user == nil {
		return "anonymous"
	}
	return h.user.Email
}

func withUserHolder(ctx context.Context, h *userHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(constants.UserKey).(*model.User)
	return u, ok && u != nil
}

// Authenticate 解析 bearer token，無效時視為未登入，不直接拒絕
func Authenticate(maker token.Maker) func(http.Handler) http.Handler {
	if maker == nil {
		panic("token maker is nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := strings.Fields(r.Header.Get(authorizationHeaderKey))
			if len(fields) != 2 || strings.ToLower(fields[0]) != authorizationTypeBearer {
				next.ServeHTTP(w, r)
				return
			}
			user, err := maker.VerifyToken(fields[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if h, ok := r.Context().Value(holderKey{}).(*userHolder); ok {
				h.set(user)
			}
			ctx := context.WithValue(r.Context(), constants.UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			response.Error(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, "No autenticado")
			return
		}
		if !u.IsAdmin() {
			response.Error(w, http.StatusForbidden, constants.MsgAdminOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}
