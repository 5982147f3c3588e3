package service

import (
	"context"
	"io"
	"strings"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type IAdminAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) error
	UpdateProduct(ctx context.Context, id int, p model.Product) error
	DeleteProduct(ctx context.Context, id int) error
	AddStock(ctx context.Context, id int, quantity int) error
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) error
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// SalesMetrics 後台圖表資料
type SalesMetrics struct {
	Revenue    int64         `json:"revenue"`
	OrderCount int           `json:"order_count"`
	ByStatus   []StatusCount `json:"by_status"`
}

type Dashboard struct {
	Products []model.Product
	Orders   []model.Order
	LowStock []model.Product
	Metrics  SalesMetrics
}

// AdminService 後台操作，呼叫前先在本地檢查角色
type AdminService struct {
	api      IAdminAPI
	session  *SessionService
	catalog  *CatalogService
	notifier Notifier
	logger   *zerolog.Logger
}

func NewAdminService(api IAdminAPI, session *SessionService, catalog *CatalogService, notifier Notifier, logger *zerolog.Logger) *AdminService {
	if api == nil || session == nil || catalog == nil || logger == nil {
		panic("admin service dependencies are nil")
	}
	return &AdminService{api: api, session: session, catalog: catalog, notifier: notifier, logger: logger}
}

func (s *AdminService) requireAdmin(op string) error {
	if !s.session.IsAuthenticated() {
		notify(s.notifier, LevelError, constants.MsgMustLogin)
		return errs.Wrap(op, errs.KindValidation, ErrNotAuthenticated, constants.MsgMustLogin)
	}
	if !s.session.IsAdmin() {
		notify(s.notifier, LevelError, constants.MsgAdminOnly)
		return errs.Wrap(op, errs.KindForbidden, ErrNotAdmin, constants.MsgAdminOnly)
	}
	return nil
}

// SaveProduct editingID 大於 0 時更新該商品，否則新增
func (s *AdminService) SaveProduct(ctx context.Context, p model.Product, editingID int) error {
	const op = "admin.SaveProduct"
	if err := s.requireAdmin(op); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.ID <= 0 || p.Name == "" || p.Price < 0 || p.Stock < 0 {
		notify(s.notifier, LevelError, constants.MsgMissingFields)
		return errs.New(op, errs.KindValidation, constants.MsgMissingFields)
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = constants.DefaultProductImage
	}

	var err error
	if editingID > 0 {
		err = s.api.UpdateProduct(ctx, editingID, p)
	} else {
		err = s.api.CreateProduct(ctx, p)
	}
	if err != nil {
		return s.fail(op, err)
	}

	s.logger.Info().Int("product_id", p.ID).Bool("update", editingID > 0).Msg("product saved")
	notify(s.notifier, LevelSuccess, constants.MsgSaved)
	s.refreshCatalog(ctx)
	return nil
}

func (s *AdminService) DeleteProduct(ctx context.Context, id int) error {
	const op = "admin.DeleteProduct"
	if err := s.requireAdmin(op); err != nil {
		return err
	}
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return s.fail(op, err)
	}
	s.logger.Info().Int("product_id", id).Msg("product deleted")
	notify(s.notifier, LevelSuccess, constants.MsgDeleted)
	s.refreshCatalog(ctx)
	return nil
}

func (s *AdminService) AddStock(ctx context.Context, id, quantity int) error {
	const op = "admin.AddStock"
	if err := s.requireAdmin(op); err != nil {
		return err
	}
	if quantity <= 0 {
		notify(s.notifier, LevelError, constants.MsgInvalidQuantity)
		return errs.New(op, errs.KindValidation, constants.MsgInvalidQuantity)
	}
	if err := s.api.AddStock(ctx, id, quantity); err != nil {
		return s.fail(op, err)
	}
	notify(s.notifier, LevelSuccess, constants.MsgStockAdded)
	s.refreshCatalog(ctx)
	return nil
}

func (s *AdminService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "admin.UploadImage"
	if err := s.requireAdmin(op); err != nil {
		return "", err
	}
	url, err := s.api.UploadImage(ctx, filename, r)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", filename).Msg("upload image failed")
		notify(s.notifier, LevelError, constants.MsgUploadFailed)
		return "", err
	}
	notify(s.notifier, LevelSuccess, constants.MsgImageReady)
	return url, nil
}

func (s *AdminService) ListOrders(ctx context.Context) ([]model.Order, error) {
	const op = "admin.ListOrders"
	if err := s.requireAdmin(op); err != nil {
		return nil, err
	}
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return orders, nil
}

func (s *AdminService) ChangeOrderStatus(ctx context.Context, id, status string) error {
	const op = "admin.ChangeOrderStatus"
	if err := s.requireAdmin(op); err != nil {
		return err
	}
	if !constants.IsValidOrderStatus(status) {
		notify(s.notifier, LevelError, constants.MsgInvalidStatus)
		return errs.New(op, errs.KindValidation, constants.MsgInvalidStatus)
	}
	if err := s.api.UpdateOrderStatus(ctx, id, status); err != nil {
		return s.fail(op, err)
	}
	notify(s.notifier, LevelSuccess, constants.MsgStatusUpdated)
	return nil
}

// Dashboard 商品與訂單同時取得
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "admin.Dashboard"
	if err := s.requireAdmin(op); err != nil {
		return nil, err
	}

	var (
		products []model.Product
		orders   []model.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.api.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.api.ListOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(op, err)
	}

	return &Dashboard{
		Products: products,
		Orders:   orders,
		LowStock: LowStock(products, constants.LowStockThreshold),
		Metrics:  ComputeSalesMetrics(orders),
	}, nil
}

func (s *AdminService) fail(op string, err error) error {
	switch {
	case errs.KindOf(err) == errs.KindRateLimited:
		notify(s.notifier, LevelError, constants.MsgRateLimited)
	case errs.IsUserCorrectable(err):
		notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgRequestFailed))
	default:
		s.logger.Error().Err(err).Str("op", op).Msg("admin request failed")
		notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgRequestFailed))
	}
	return err
}

func (s *AdminService) refreshCatalog(ctx context.Context) {
	if _, err := s.catalog.Reload(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reload catalog after admin change failed")
	}
}

// LowStock 庫存低於 threshold 的商品
func LowStock(products []model.Product, threshold int) []model.Product {
	res := make([]model.Product, 0)
	for _, p := range products {
		if p.Stock < threshold {
			res = append(res, p)
		}
	}
	return res
}

// ComputeSalesMetrics 營收加總與各狀態筆數
// 已知狀態依固定順序列出，其他狀態依出現順序接在後面
func ComputeSalesMetrics(orders []model.Order) SalesMetrics {
	m := SalesMetrics{OrderCount: len(orders)}
	counts := make(map[string]int)
	extra := make([]string, 0)
	for _, o := range orders {
		m.Revenue += o.Total
		if _, seen := counts[o.Status]; !seen && !constants.IsValidOrderStatus(o.Status) {
			extra = append(extra, o.Status)
		}
		counts[o.Status]++
	}

	m.ByStatus = make([]StatusCount, 0, len(constants.OrderStatuses)+len(extra))
	for _, st := range constants.OrderStatuses {
		m.ByStatus = append(m.ByStatus, StatusCount{Status: string(st), Count: counts[string(st)]})
	}
	for _, st := range extra {
		m.ByStatus = append(m.ByStatus, StatusCount{Status: st, Count: counts[st]})
	}
	return m
}
