package state

import (
	"context"
	"errors"
)

var ErrCorruptedRecord = errors.New("corrupted state record")

// IStateStore 客戶端持久化狀態(購物車、登入資訊)
// 值以 JSON 儲存在固定 key 之下，重新啟動後還原
type IStateStore interface {
	// Load 讀取 key 並解碼到 v，key 不存在時回傳 false
	// 錯誤:
	//   - ErrCorruptedRecord: 資料無法解碼
	//   - err: 其他錯誤
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	Close() error
}
