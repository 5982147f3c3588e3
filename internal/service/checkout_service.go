package service

import (
	"context"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/infra/producer"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
)

type IOrderAPI interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error)
	ListUserOrders(ctx context.Context, email string) ([]model.Order, error)
}

type CheckoutState int

const (
	StateIdle CheckoutState = iota
	StateReviewing
	StateSubmitting
)

func (s CheckoutState) String() string {
	switch s {
	case StateReviewing:
		return "reviewing"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Review 確認付款畫面顯示的內容
type Review struct {
	Email  string
	Lines  []model.CartLine
	Totals Totals
}

// CheckoutService 結帳流程
// Idle -> Reviewing -> Submitting -> Idle(成功) 或 Reviewing(失敗)
type CheckoutService struct {
	cart      *CartService
	session   *SessionService
	catalog   *CatalogService
	api       IOrderAPI
	publisher producer.IOrderEventPublisher
	notifier  Notifier
	logger    *zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state CheckoutState
}

func NewCheckoutService(
	cart *CartService,
	session *SessionService,
	catalog *CatalogService,
	api IOrderAPI,
	publisher producer.IOrderEventPublisher,
	notifier Notifier,
	logger *zerolog.Logger,
) *CheckoutService {
	if cart == nil || session == nil || catalog == nil {
		panic("checkout dependencies are nil")
	}
	if api == nil {
		panic("checkout order api is nil")
	}
	if logger == nil {
		panic("checkout logger is nil")
	}
	if publisher == nil {
		publisher = producer.NoopPublisher{}
	}
	return &CheckoutService{
		cart:      cart,
		session:   session,
		catalog:   catalog,
		api:       api,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CheckoutService) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open 購物車不可為空且必須已登入，檢查失敗不會發出任何請求
func (s *CheckoutService) Open(ctx context.Context) (*Review, error) {
	const op = "checkout.Open"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting {
		return nil, errs.Wrap(op, errs.KindValidation, ErrSubmissionInFlight, "")
	}

	review, err := s.prepareLocked(op)
	if err != nil {
		return nil, err
	}
	s.state = StateReviewing
	return review, nil
}

// Cancel 關閉確認畫面
func (s *CheckoutService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReviewing {
		s.state = StateIdle
	}
}

// Submit 送出訂單，不會自動重試
// 送出期間再次呼叫會直接回傳 ErrSubmissionInFlight，請求本身不受 ctx 取消影響
func (s *CheckoutService) Submit(ctx context.Context) (*model.OrderReceipt, error) {
	const op = "checkout.Submit"

	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return nil, errs.Wrap(op, errs.KindValidation, ErrSubmissionInFlight, "")
	case StateIdle:
		s.mu.Unlock()
		return nil, errs.Wrap(op, errs.KindValidation, ErrCheckoutNotOpen, "")
	}

	// 確認畫面開著時購物車或登入狀態可能已改變
	review, err := s.prepareLocked(op)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	req := buildOrderRequest(review)
	s.logger.Info().Str("email", req.CustomerEmail).Int("items", len(req.Items)).Int64("total", req.Total).Msg("submitting order")

	receipt, err := s.api.CreateOrder(context.WithoutCancel(ctx), req)
	if err != nil {
		s.setState(StateReviewing)
		s.reportFailure(ctx, err)
		return nil, err
	}

	s.setState(StateIdle)
	s.completeOrder(ctx, review, receipt)
	return receipt, nil
}

func (s *CheckoutService) prepareLocked(op string) (*Review, error) {
	if s.cart.IsEmpty() {
		s.state = StateIdle
		notify(s.notifier, LevelInfo, constants.MsgCartEmpty)
		return nil, errs.Wrap(op, errs.KindValidation, ErrCartEmpty, constants.MsgCartEmpty)
	}
	sess, ok := s.session.Current()
	if !ok {
		s.state = StateIdle
		notify(s.notifier, LevelInfo, constants.MsgLoginFirst)
		return nil, errs.Wrap(op, errs.KindValidation, ErrNotAuthenticated, constants.MsgLoginFirst)
	}
	lines := s.cart.Lines()
	return &Review{
		Email:  sess.User.Email,
		Lines:  lines,
		Totals: Calculate(lines),
	}, nil
}

func (s *CheckoutService) setState(state CheckoutState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *CheckoutService) completeOrder(ctx context.Context, review *Review, receipt *model.OrderReceipt) {
	s.logger.Info().Str("order_id", receipt.ID).Str("status", receipt.Status).Msg("order placed")

	if err := s.cart.Clear(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", receipt.ID).Msg("clear cart after order failed")
	}
	// 伺服器已扣庫存，重新取得目錄
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reload catalog after order failed")
	}

	evt := model.OrderPlacedEvent{
		OrderID:       receipt.ID,
		CustomerEmail: review.Email,
		Items:         buildOrderItems(review.Lines),
		Total:         review.Totals.GrandTotal,
		Net:           review.Totals.Net,
		Tax:           review.Totals.Tax,
		PlacedAt:      s.now().UTC(),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("order_id", receipt.ID).Msg("publish order placed event failed")
	}

	notify(s.notifier, LevelSuccess, constants.MsgOrderSuccess)
}

func (s *CheckoutService) reportFailure(ctx context.Context, err error) {
	switch errs.KindOf(err) {
	case errs.KindRateLimited:
		notify(s.notifier, LevelError, constants.MsgRateLimited)
	case errs.KindStockConflict:
		// 只更新目錄，購物車保持原樣讓使用者自行調整
		if _, rerr := s.catalog.Reload(ctx); rerr != nil {
			s.logger.Error().Err(rerr).Msg("reload catalog after stock conflict failed")
		}
		notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgInsufficientStock))
	case errs.KindNetwork:
		s.logger.Error().Err(err).Msg("submit order failed")
		notify(s.notifier, LevelError, constants.MsgConnectionError)
	default:
		if !errs.IsUserCorrectable(err) {
			s.logger.Error().Err(err).Msg("submit order failed")
		}
		notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgRequestFailed))
	}
}

func buildOrderItems(lines []model.CartLine) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ProductID: l.ID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}
	return items
}

func buildOrderRequest(review *Review) model.OrderRequest {
	return model.OrderRequest{
		CustomerEmail: review.Email,
		Items:         buildOrderItems(review.Lines),
		Total:         review.Totals.GrandTotal,
	}
}
