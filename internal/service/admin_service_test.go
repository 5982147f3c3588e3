package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/stretchr/testify/suite"
)

type AdminServiceTestSuite struct {
	suite.Suite
	h     *harness
	admin *AdminService
	ctx   context.Context
}

func (s *AdminServiceTestSuite) SetupTest() {
	s.h = newHarness(s.T())
	s.admin = NewAdminService(s.h.api, s.h.session, s.h.catalog, s.h.notes, nopLogger())
	s.ctx = context.Background()
}

func (s *AdminServiceTestSuite) TestRequiresAdmin() {
	calls := s.h.api.Calls()
	err := s.admin.DeleteProduct(s.ctx, 1)
	s.Require().ErrorIs(err, ErrNotAuthenticated)
	s.Equal(calls, s.h.api.Calls())

	s.h.signIn(s.T(), "cliente")
	calls = s.h.api.Calls()
	err = s.admin.DeleteProduct(s.ctx, 1)
	s.Require().ErrorIs(err, errs.ErrForbidden)
	s.Require().ErrorIs(err, ErrNotAdmin)
	s.Equal(constants.MsgAdminOnly, s.h.notes.Last().Message)
	s.Equal(calls, s.h.api.Calls())
}

func (s *AdminServiceTestSuite) TestSaveProductCreateAndUpdate() {
	s.h.signIn(s.T(), "admin")

	s.Require().NoError(s.admin.SaveProduct(s.ctx, model.Product{ID: 10, Name: " Chorizo ", Category: "horno", Price: 2300, Stock: 4}, 0))
	s.Require().Len(s.h.api.created, 1)
	s.Equal("Chorizo", s.h.api.created[0].Name)
	s.Equal(constants.DefaultProductImage, s.h.api.created[0].Image)

	s.Require().NoError(s.admin.SaveProduct(s.ctx, model.Product{ID: 1, Name: "Pino", Price: 2600, Stock: 20, Image: "pino.jpg"}, 1))
	s.Equal(int64(2600), s.h.api.updated[1].Price)
	s.Equal(2, s.h.notes.Count(constants.MsgSaved))
}

func (s *AdminServiceTestSuite) TestSaveProductValidation() {
	s.h.signIn(s.T(), "admin")
	calls := s.h.api.Calls()

	err := s.admin.SaveProduct(s.ctx, model.Product{ID: 0, Name: "X"}, 0)
	s.Require().ErrorIs(err, errs.ErrValidation)
	err = s.admin.SaveProduct(s.ctx, model.Product{ID: 3, Name: "  "}, 0)
	s.Require().ErrorIs(err, errs.ErrValidation)
	s.Equal(calls, s.h.api.Calls())
}

func (s *AdminServiceTestSuite) TestAddStock() {
	s.h.signIn(s.T(), "admin")

	s.Require().ErrorIs(s.admin.AddStock(s.ctx, 3, 0), errs.ErrValidation)
	s.Require().NoError(s.admin.AddStock(s.ctx, 3, 12))
	s.Equal(12, s.h.api.stockAdds[3])
}

func (s *AdminServiceTestSuite) TestChangeOrderStatus() {
	s.h.signIn(s.T(), "admin")

	s.Require().ErrorIs(s.admin.ChangeOrderStatus(s.ctx, "o1", "perdido"), errs.ErrValidation)
	s.Require().NoError(s.admin.ChangeOrderStatus(s.ctx, "o1", "listo"))
	s.Equal("listo", s.h.api.statusUpdates["o1"])
	s.Equal(constants.MsgStatusUpdated, s.h.notes.Last().Message)
}

func (s *AdminServiceTestSuite) TestUploadImage() {
	s.h.signIn(s.T(), "admin")
	s.h.api.uploadURL = "/static/images/abc.png"

	url, err := s.admin.UploadImage(s.ctx, "abc.png", strings.NewReader("img"))
	s.Require().NoError(err)
	s.Equal("/static/images/abc.png", url)
	s.Equal("img", s.h.api.uploaded["abc.png"])

	s.h.api.uploadErr = &errs.ShopError{Kind: errs.KindServer, Status: 500}
	_, err = s.admin.UploadImage(s.ctx, "abc.png", strings.NewReader("img"))
	s.Require().Error(err)
	s.Equal(constants.MsgUploadFailed, s.h.notes.Last().Message)
}

func (s *AdminServiceTestSuite) TestServerFailureReason() {
	s.h.signIn(s.T(), "admin")
	s.h.api.writeErr = &errs.ShopError{Kind: errs.KindNotFound, Status: 404, Reason: "Producto no encontrado"}

	err := s.admin.DeleteProduct(s.ctx, 99)
	s.Require().ErrorIs(err, errs.ErrNotFound)
	s.Equal("Producto no encontrado", s.h.notes.Last().Message)
}

func (s *AdminServiceTestSuite) TestDashboard() {
	s.h.signIn(s.T(), "admin")
	s.h.api.orders = []model.Order{
		{ID: "o1", Total: 5000, Status: "recibido"},
		{ID: "o2", Total: 2500, Status: "listo"},
		{ID: "o3", Total: 1500, Status: "recibido"},
		{ID: "o4", Total: 1000, Status: "confirmado"},
	}

	d, err := s.admin.Dashboard(s.ctx)
	s.Require().NoError(err)
	s.Len(d.Products, 6)
	s.Len(d.Orders, 4)

	low := make([]int, 0)
	for _, p := range d.LowStock {
		low = append(low, p.ID)
	}
	s.Equal([]int{3, 6}, low)

	s.Equal(int64(10000), d.Metrics.Revenue)
	s.Equal(4, d.Metrics.OrderCount)
	s.Equal([]StatusCount{
		{Status: "recibido", Count: 2},
		{Status: "preparando", Count: 0},
		{Status: "listo", Count: 1},
		{Status: "entregado", Count: 0},
		{Status: "confirmado", Count: 1},
	}, d.Metrics.ByStatus)
}

func (s *AdminServiceTestSuite) TestDashboardFailure() {
	s.h.signIn(s.T(), "admin")
	s.h.api.ordersErr = errors.New("boom")

	_, err := s.admin.Dashboard(s.ctx)
	s.Require().Error(err)
}

func TestAdminServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceTestSuite))
}
