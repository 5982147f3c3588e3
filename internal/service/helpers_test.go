package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/infra/repository/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func seedProducts() []model.Product {
	return []model.Product{
		{ID: 1, Name: "Pino", Category: "horno", Price: 2500, Stock: 20, Image: "pino.jpg"},
		{ID: 2, Name: "Queso", Category: "frita", Price: 2000, Stock: 15, Image: "queso.jpg"},
		{ID: 3, Name: "Camarón Queso", Category: "frita", Price: 2800, Stock: 0, Image: "camaron.jpg"},
		{ID: 4, Name: "Napolitana", Category: "horno", Price: 2200, Stock: 10, Image: "napo.jpg"},
		{ID: 5, Name: "Bebida 500ml", Category: "bebida", Price: 1500, Stock: 50, Image: "https://cdn.test/bebida.jpg"},
		{ID: 6, Name: "Limitada", Category: "horno", Price: 1190, Stock: 2, Image: ""},
	}
}

// fakeAPI 記錄每一次呼叫，calls 為總請求數
type fakeAPI struct {
	mu    sync.Mutex
	calls int

	products  []model.Product
	listErr   error
	listCalls int

	loginRes    *model.LoginResponse
	loginErr    error
	registerErr error
	registered  []model.RegisterRequest

	createOrder func(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error)
	orderReqs   []model.OrderRequest

	userOrders      []model.Order
	userOrdersErr   error
	userOrdersEmail string

	orders    []model.Order
	ordersErr error

	writeErr      error
	created       []model.Product
	updated       map[int]model.Product
	deleted       []int
	stockAdds     map[int]int
	statusUpdates map[string]string
	uploadURL     string
	uploadErr     error
	uploaded      map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		products:      seedProducts(),
		updated:       make(map[int]model.Product),
		stockAdds:     make(map[int]int),
		statusUpdates: make(map[string]string),
		uploaded:      make(map[string]string),
	}
}

func (f *fakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeAPI) setProducts(products []model.Product) {
	f.mu.Lock()
	f.products = products
	f.mu.Unlock()
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.hit()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeAPI) ImageURL(image string) string {
	if strings.HasPrefix(image, "http") {
		return image
	}
	return "http://api.test/static/images/" + image
}

func (f *fakeAPI) Login(ctx context.Context, identifier, password string) (*model.LoginResponse, error) {
	f.hit()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginRes, nil
}

func (f *fakeAPI) Register(ctx context.Context, req model.RegisterRequest) error {
	f.hit()
	f.mu.Lock()
	f.registered = append(f.registered, req)
	f.mu.Unlock()
	return f.registerErr
}

func (f *fakeAPI) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.OrderReceipt, error) {
	f.hit()
	f.mu.Lock()
	f.orderReqs = append(f.orderReqs, req)
	fn := f.createOrder
	f.mu.Unlock()
	if fn == nil {
		return &model.OrderReceipt{ID: "order-0001", Status: "confirmado"}, nil
	}
	return fn(ctx, req)
}

func (f *fakeAPI) OrderRequests() []model.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OrderRequest(nil), f.orderReqs...)
}

func (f *fakeAPI) ListUserOrders(ctx context.Context, email string) ([]model.Order, error) {
	f.hit()
	f.userOrdersEmail = email
	return f.userOrders, f.userOrdersErr
}

func (f *fakeAPI) ListOrders(ctx context.Context) ([]model.Order, error) {
	f.hit()
	return f.orders, f.ordersErr
}

func (f *fakeAPI) CreateProduct(ctx context.Context, p model.Product) error {
	f.hit()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, id int, p model.Product) error {
	f.hit()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.updated[id] = p
	return nil
}

func (f *fakeAPI) DeleteProduct(ctx context.Context, id int) error {
	f.hit()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) AddStock(ctx context.Context, id int, quantity int) error {
	f.hit()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.stockAdds[id] += quantity
	return nil
}

func (f *fakeAPI) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	f.hit()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	raw, _ := io.ReadAll(r)
	f.uploaded[filename] = string(raw)
	return f.uploadURL, nil
}

func (f *fakeAPI) UpdateOrderStatus(ctx context.Context, id, status string) error {
	f.hit()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.statusUpdates[id] = status
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recordingNotifier) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recordingNotifier) Count(msg string) int {
	n := 0
	for _, note := range r.All() {
		if note.Message == msg {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) Last() Notification {
	all := r.All()
	if len(all) == 0 {
		return Notification{}
	}
	return all[len(all)-1]
}

func (r *recordingNotifier) Reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}

// failingStore 可讓 Save 失敗的 store
type failingStore struct {
	*state.MemoryStore
	saveErr error
}

func (s *failingStore) Save(ctx context.Context, key string, v any) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, key, v)
}

var errDiskFull = errors.New("disk full")

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type harness struct {
	api     *fakeAPI
	store   *failingStore
	notes   *recordingNotifier
	catalog *CatalogService
	cart    *CartService
	session *SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		api:   newFakeAPI(),
		store: &failingStore{MemoryStore: state.NewMemoryStore()},
		notes: &recordingNotifier{},
	}
	h.catalog = NewCatalogService(h.api, nopLogger())
	h.cart = NewCartService(h.store, h.catalog, h.notes, nopLogger())
	h.session = NewSessionService(h.store, h.api, h.notes, nopLogger())

	_, err := h.catalog.Reload(context.Background())
	require.NoError(t, err)
	return h
}

func (h *harness) signIn(t *testing.T, role string) {
	t.Helper()
	h.api.loginRes = &model.LoginResponse{
		AccessToken: "token-123",
		TokenType:   "bearer",
		User:        model.User{Name: "Ana Pérez", Email: "ana@x.cl", Role: role},
	}
	_, err := h.session.Login(context.Background(), "ana@x.cl", "secret123")
	require.NoError(t, err)
	h.notes.Reset()
}
