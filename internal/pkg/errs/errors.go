package errs

import (
	"errors"
	"fmt"
	"time"
)

type Kind int

const (
	KindUnknown Kind = iota
	// 送出前就擋下，不會發出網路請求
	KindValidation
	// 本地庫存檢查失敗，非致命
	KindStockExceeded
	// 伺服器因庫存變動拒絕訂單
	KindStockConflict
	KindNetwork
	KindRateLimited
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindBadRequest
	KindServer
	// 回應格式錯誤
	KindDecode
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindValidation:    "validation_failure",
	KindStockExceeded: "stock_exceeded",
	KindStockConflict: "stock_conflict",
	KindNetwork:       "network_failure",
	KindRateLimited:   "rate_limited",
	KindUnauthorized:  "unauthorized",
	KindForbidden:     "forbidden",
	KindNotFound:      "not_found",
	KindBadRequest:    "bad_request",
	KindServer:        "server_error",
	KindDecode:        "decode_error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// 每個 Kind 對應的 sentinel，供 errors.Is 使用
var (
	ErrValidation    = errors.New("validation failure")
	ErrStockExceeded = errors.New("stock exceeded")
	ErrStockConflict = errors.New("stock conflict")
	ErrNetwork       = errors.New("network failure")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrServer        = errors.New("server error")
	ErrDecode        = errors.New("malformed response")
)

var kindSentinels = map[Kind]error{
	KindValidation:    ErrValidation,
	KindStockExceeded: ErrStockExceeded,
	KindStockConflict: ErrStockConflict,
	KindNetwork:       ErrNetwork,
	KindRateLimited:   ErrRateLimited,
	KindUnauthorized:  ErrUnauthorized,
	KindForbidden:     ErrForbidden,
	KindNotFound:      ErrNotFound,
	KindBadRequest:    ErrBadRequest,
	KindServer:        ErrServer,
	KindDecode:        ErrDecode,
}

// ShopError 代表一次操作失敗
// Reason 是可以直接顯示給使用者的訊息(伺服器回傳的 detail 或本地訊息)
type ShopError struct {
	Op         string
	Kind       Kind
	Status     int
	Reason     string
	RetryAfter time.Duration
	Err        error
}

func (e *ShopError) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *ShopError) Unwrap() error {
	return e.Err
}

// Is 讓 errors.Is(err, errs.ErrRateLimited) 依 Kind 判斷
func (e *ShopError) Is(target error) bool {
	if s, ok := kindSentinels[e.Kind]; ok {
		return s == target
	}
	return false
}

func New(op string, kind Kind, reason string) *ShopError {
	return &ShopError{Op: op, Kind: kind, Reason: reason}
}

func Wrap(op string, kind Kind, err error, reason string) *ShopError {
	return &ShopError{Op: op, Kind: kind, Reason: reason, Err: err}
}

// KindOf 取出錯誤鏈上第一個 ShopError 的 Kind
func KindOf(err error) Kind {
	var se *ShopError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// ReasonOf 回傳可顯示的訊息，沒有時回傳 fallback
func ReasonOf(err error, fallback string) string {
	var se *ShopError
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	return fallback
}

// IsUserCorrectable 使用者可自行修正後重試的錯誤
func IsUserCorrectable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindStockExceeded, KindStockConflict, KindRateLimited,
		KindUnauthorized, KindForbidden, KindBadRequest, KindNotFound:
		return true
	default:
		return false
	}
}
