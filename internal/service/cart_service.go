package service

import (
	"context"
	"errors"
	"sync"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/infra/repository/state"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
)

// CartObserver 每次購物車變動後收到最新內容與金額
// 在購物車的鎖內被呼叫，不可再呼叫 CartService
type CartObserver interface {
	CartChanged(lines []model.CartLine, totals Totals)
}

type CartObserverFunc func(lines []model.CartLine, totals Totals)

func (f CartObserverFunc) CartChanged(lines []model.CartLine, totals Totals) { f(lines, totals) }

type AdjustOutcome int

const (
	AdjustUnchanged AdjustOutcome = iota
	AdjustUpdated
	AdjustRemoved
	// 超過庫存，數量被壓到上限
	AdjustClamped
)

func (o AdjustOutcome) String() string {
	switch o {
	case AdjustUpdated:
		return "updated"
	case AdjustRemoved:
		return "removed"
	case AdjustClamped:
		return "clamped"
	default:
		return "unchanged"
	}
}

// CartChange Reconcile 時被調整的行，To 為 0 代表移除
type CartChange struct {
	ProductID int
	Name      string
	From      int
	To        int
}

// CartService 唯一可以修改購物車的元件
// 每次修改都先寫入 store，成功後才替換記憶體內容並重算金額
type CartService struct {
	store    state.IStateStore
	catalog  IProductLookup
	notifier Notifier
	logger   *zerolog.Logger

	mu        sync.Mutex
	cart      *model.Cart
	observers []CartObserver
}

func NewCartService(store state.IStateStore, catalog IProductLookup, notifier Notifier, logger *zerolog.Logger) *CartService {
	if store == nil {
		panic("cart store is nil")
	}
	if catalog == nil {
		panic("cart catalog is nil")
	}
	if logger == nil {
		panic("cart logger is nil")
	}
	return &CartService{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		cart:     &model.Cart{},
	}
}

func (s *CartService) Observe(o CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Restore 啟動時讀回購物車，資料損壞時重設為空
func (s *CartService) Restore(ctx context.Context) error {
	var lines []model.CartLine
	found, err := s.store.Load(ctx, constants.CartStorageKey, &lines)
	if err != nil && !errors.Is(err, state.ErrCorruptedRecord) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if errors.Is(err, state.ErrCorruptedRecord) {
		s.logger.Warn().Err(err).Msg("cart record corrupted, reset to empty")
		if err := s.store.Delete(ctx, constants.CartStorageKey); err != nil {
			s.logger.Error().Err(err).Msg("delete corrupted cart failed")
		}
		s.cart = &model.Cart{}
		s.publishLocked()
		return nil
	}

	restored := &model.Cart{}
	if found {
		for _, l := range lines {
			if l.Quantity <= 0 || restored.IndexOf(l.ID) >= 0 {
				continue
			}
			restored.Lines = append(restored.Lines, l)
		}
	}
	s.cart = restored
	s.publishLocked()
	return nil
}

// Add 現有數量加上 quantity 不可超過快照中的庫存
func (s *CartService) Add(ctx context.Context, productID, quantity int) error {
	const op = "cart.Add"
	if quantity <= 0 {
		return errs.New(op, errs.KindValidation, "quantity must be positive")
	}

	product, ok := s.catalog.Find(productID)
	if !ok {
		return errs.New(op, errs.KindNotFound, "product not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := 0
	if line, ok := s.cart.Find(productID); ok {
		existing = line.Quantity
	}

	if existing+quantity > product.Stock {
		msg := constants.MsgInsufficientStock
		if !product.InStock() {
			msg = constants.MsgOutOfStock
		}
		notify(s.notifier, LevelError, msg)
		return errs.New(op, errs.KindStockExceeded, msg)
	}

	next := s.cart.Clone()
	if i := next.IndexOf(productID); i >= 0 {
		next.Lines[i].Product = product
		next.Lines[i].Quantity += quantity
	} else {
		next.Lines = append(next.Lines, model.CartLine{Product: product, Quantity: quantity})
	}

	if err := s.commitLocked(ctx, op, next); err != nil {
		return err
	}
	notify(s.notifier, LevelSuccess, constants.MsgAddedToCart)
	return nil
}

// Adjust 結果限制在 [0, stock]，0 代表移除該行
// 超過庫存時不回傳錯誤，改以 AdjustClamped 表示並通知使用者
func (s *CartService) Adjust(ctx context.Context, productID, delta int) (AdjustOutcome, error) {
	const op = "cart.Adjust"

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cart.IndexOf(productID)
	if i < 0 {
		return AdjustUnchanged, errs.New(op, errs.KindNotFound, "product not in cart")
	}
	if delta == 0 {
		return AdjustUnchanged, nil
	}

	line := s.cart.Lines[i]
	// 商品已從目錄消失時以加入時的快照為準
	if product, ok := s.catalog.Find(productID); ok {
		line.Product = product
	}

	target := line.Quantity + delta
	outcome := AdjustUpdated
	if target > line.Stock {
		target = line.Stock
		outcome = AdjustClamped
	}
	if target <= 0 {
		target = 0
		outcome = AdjustRemoved
	}
	if outcome == AdjustClamped && target == s.cart.Lines[i].Quantity && line.Product == s.cart.Lines[i].Product {
		notify(s.notifier, LevelError, constants.MsgInsufficientStock)
		return AdjustClamped, nil
	}

	next := s.cart.Clone()
	if target == 0 {
		next.Remove(productID)
	} else {
		line.Quantity = target
		next.Lines[i] = line
	}

	if err := s.commitLocked(ctx, op, next); err != nil {
		return AdjustUnchanged, err
	}
	if outcome == AdjustClamped {
		notify(s.notifier, LevelError, constants.MsgInsufficientStock)
	}
	return outcome, nil
}

// Remove 直接移除整行
func (s *CartService) Remove(ctx context.Context, productID int) error {
	const op = "cart.Remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.IndexOf(productID) < 0 {
		return errs.New(op, errs.KindNotFound, "product not in cart")
	}
	next := s.cart.Clone()
	next.Remove(productID)
	return s.commitLocked(ctx, op, next)
}

func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, "cart.Clear", &model.Cart{})
}

// Reconcile 目錄更新後重新檢查每一行
// 商品消失或沒有庫存的行被移除，超過庫存的行被壓到上限
func (s *CartService) Reconcile(ctx context.Context) ([]CartChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := make([]CartChange, 0)
	next := &model.Cart{Lines: make([]model.CartLine, 0, len(s.cart.Lines))}
	refreshed := false
	for _, line := range s.cart.Lines {
		product, ok := s.catalog.Find(line.ID)
		if !ok || !product.InStock() {
			changes = append(changes, CartChange{ProductID: line.ID, Name: line.Name, From: line.Quantity, To: 0})
			continue
		}
		if product != line.Product {
			refreshed = true
		}
		qty := line.Quantity
		if qty > product.Stock {
			changes = append(changes, CartChange{ProductID: line.ID, Name: line.Name, From: qty, To: product.Stock})
			qty = product.Stock
		}
		next.Lines = append(next.Lines, model.CartLine{Product: product, Quantity: qty})
	}

	if len(changes) == 0 && !refreshed {
		return changes, nil
	}
	if err := s.commitLocked(ctx, "cart.Reconcile", next); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		s.logger.Info().Int("changes", len(changes)).Msg("cart adjusted to live stock")
		notify(s.notifier, LevelError, constants.MsgCartAdjustedToStock)
	}
	return changes, nil
}

func (s *CartService) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone().Lines
}

func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *CartService) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

func (s *CartService) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Calculate(s.cart.Lines)
}

// commitLocked 先持久化再替換，寫入失敗時購物車維持原狀
func (s *CartService) commitLocked(ctx context.Context, op string, next *model.Cart) error {
	lines := next.Lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	if err := s.store.Save(ctx, constants.CartStorageKey, lines); err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("persist cart failed")
		return errs.Wrap(op, errs.KindUnknown, err, "")
	}
	s.cart = next
	s.publishLocked()
	return nil
}

func (s *CartService) publishLocked() {
	if len(s.observers) == 0 {
		return
	}
	lines := s.cart.Clone().Lines
	totals := Calculate(lines)
	for _, o := range s.observers {
		o.CartChanged(lines, totals)
	}
}
