package constants

import "time"

// 本地持久化的固定key，與瀏覽器版本相容
const (
	CartStorageKey    = "dw_cart"
	SessionStorageKey = "dw_sess"
)

// 含稅價格的稅率，固定不可設定
const TaxRate = "0.19"

const (
	DefaultCarouselInterval = 4 * time.Second
	FeaturedProductCount    = 5
	LowStockThreshold       = 10
	MinPasswordLength       = 8
	DefaultProductImage     = "placeholder.jpg"
	StaticImagePath         = "/static/images/"
	AllCategories           = "all"
)

type RoleEnum string

const (
	RoleAdmin    RoleEnum = "admin"
	RoleCustomer RoleEnum = "cliente"
)

type OrderStatusEnum string

const (
	OrderStatusReceived  OrderStatusEnum = "recibido"
	OrderStatusPreparing OrderStatusEnum = "preparando"
	OrderStatusReady     OrderStatusEnum = "listo"
	OrderStatusDelivered OrderStatusEnum = "entregado"
	// 建立訂單成功時後端回傳的狀態
	OrderStatusConfirmed OrderStatusEnum = "confirmado"
)

// OrderStatuses 後台可切換的狀態，順序即顯示順序
var OrderStatuses = []OrderStatusEnum{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
}

func IsValidOrderStatus(status string) bool {
	switch OrderStatusEnum(status) {
	case OrderStatusReceived, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

type Category struct {
	ID    string
	Title string
}

// Categories 首頁貨架順序
var Categories = []Category{
	{ID: "horno", Title: "🔥 De Horno"},
	{ID: "frita", Title: "🍳 Fritas"},
	{ID: "bebida", Title: "🥤 Bebidas"},
	{ID: "acompañamiento", Title: "🍟 Extras"},
}

// 給使用者看的訊息
const (
	MsgOutOfStock          = "Agotado"
	MsgInsufficientStock   = "Stock insuficiente"
	MsgAddedToCart         = "Agregado al carrito"
	MsgCartEmpty           = "Carrito vacío"
	MsgLoginFirst          = "Inicia sesión primero"
	MsgOrderSuccess        = "¡Pedido Exitoso!"
	MsgRequestFailed       = "Error en la petición"
	MsgConnectionError     = "Error de conexión"
	MsgRateLimited         = "⛔ Demasiados intentos. Espera 1 min."
	MsgMissingCredentials  = "Ingresa usuario y contraseña"
	MsgBadCredentials      = "Credenciales incorrectas o error de conexión"
	MsgMissingFields       = "Faltan datos"
	MsgPasswordTooShort    = "Contraseña muy corta (mín 8)"
	MsgInvalidEmail        = "Correo inválido"
	MsgAccountCreated      = "¡Cuenta creada! Inicia sesión."
	MsgMustLogin           = "Debes iniciar sesión"
	MsgAdminOnly           = "Solo administradores"
	MsgHistoryFailed       = "Error al cargar historial"
	MsgSaved               = "Guardado"
	MsgStatusUpdated       = "Estado actualizado"
	MsgImageReady          = "Imagen lista"
	MsgUploadFailed        = "Error subida"
	MsgInvalidStatus       = "Estado inválido"
	MsgCartAdjustedToStock = "El carrito se ajustó al stock disponible"
	MsgWelcomeFormat       = "¡Hola, %s!"
	MsgLoggedOut           = "Sesión cerrada"
	MsgDeleted             = "Eliminado"
	MsgStockAdded          = "Stock agregado"
	MsgInvalidQuantity     = "Cantidad inválida"
	// 後端庫存不足訊息的開頭，後面接商品名稱
	MsgStockConflictPrefix = "Sin stock suficiente"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserKey      ContextKey = "user"
)
