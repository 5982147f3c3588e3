package service

import (
	"context"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
)

// OrderService 目前登入使用者的訂單紀錄
type OrderService struct {
	api      IOrderAPI
	session  *SessionService
	notifier Notifier
	logger   *zerolog.Logger
}

func NewOrderService(api IOrderAPI, session *SessionService, notifier Notifier, logger *zerolog.Logger) *OrderService {
	if api == nil || session == nil || logger == nil {
		panic("order service dependencies are nil")
	}
	return &OrderService{api: api, session: session, notifier: notifier, logger: logger}
}

func (s *OrderService) History(ctx context.Context) ([]model.Order, error) {
	const op = "order.History"

	user, ok := s.session.User()
	if !ok {
		notify(s.notifier, LevelInfo, constants.MsgMustLogin)
		return nil, errs.Wrap(op, errs.KindValidation, ErrNotAuthenticated, constants.MsgMustLogin)
	}

	orders, err := s.api.ListUserOrders(ctx, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("email", user.Email).Msg("load order history failed")
		if errs.KindOf(err) == errs.KindRateLimited {
			notify(s.notifier, LevelError, constants.MsgRateLimited)
		} else {
			notify(s.notifier, LevelError, constants.MsgHistoryFailed)
		}
		return nil, err
	}
	return orders, nil
}
