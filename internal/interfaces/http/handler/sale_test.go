package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/retail/sales/internal/application/sales"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/retail/sales/internal/interfaces/http/dto"
	"github.com/retail/sales/internal/interfaces/http/handler"
	"github.com/retail/sales/internal/interfaces/http/middleware"
	"github.com/retail/sales/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSaleRepo struct{ mock.Mock }

func (m *mockSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id)
	sale, _ := args.Get(0).(*sales.Sale)
	return sale, args.Error(1)
}

func (m *mockSaleRepo) FindBySaleNumber(ctx context.Context, saleNumber string) (*sales.Sale, error) {
	args := m.Called(ctx, saleNumber)
	sale, _ := args.Get(0).(*sales.Sale)
	return sale, args.Error(1)
}

func (m *mockSaleRepo) Create(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *mockSaleRepo) Save(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *mockSaleRepo) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *mockSaleRepo) list(args mock.Arguments) ([]sales.Sale, int64, error) {
	list, _ := args.Get(0).([]sales.Sale)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *mockSaleRepo) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Sale, int64, error) {
	return m.list(m.Called(ctx, filter))
}

func (m *mockSaleRepo) FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]sales.Sale, int64, error) {
	return m.list(m.Called(ctx, start, end, filter))
}

func (m *mockSaleRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	return m.list(m.Called(ctx, customerID, filter))
}

func (m *mockSaleRepo) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	return m.list(m.Called(ctx, branchID, filter))
}

func (m *mockSaleRepo) ExistsBySaleNumber(ctx context.Context, saleNumber string) (bool, error) {
	args := m.Called(ctx, saleNumber)
	return args.Bool(0), args.Error(1)
}

// refRepo serves customers, branches and products from maps keyed by id
type refRepo[T any] struct {
	byID map[uuid.UUID]*T
}

func (r *refRepo[T]) FindByID(_ context.Context, id uuid.UUID) (*T, error) {
	return r.byID[id], nil
}

func (r *refRepo[T]) FindByExternalID(context.Context, string) (*T, error) {
	return nil, nil
}

func (r *refRepo[T]) Save(context.Context, *T) error {
	return nil
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type saleAPI struct {
	engine    *gin.Engine
	saleRepo  *mockSaleRepo
	publisher *recordingPublisher
	customer  *sales.Customer
	branch    *sales.Branch
	product   *sales.Product
}

func newSaleAPI(t *testing.T) *saleAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	customer, err := sales.NewCustomer("EXT-C-1", "Jane Buyer", "jane@example.com", "555-0100")
	require.NoError(t, err)
	branch, err := sales.NewBranch("EXT-B-1", "Downtown", "1 Main St")
	require.NoError(t, err)
	product, err := sales.NewProduct("EXT-P-1", "Widget", "A widget", decimal.NewFromInt(10))
	require.NoError(t, err)

	api := &saleAPI{
		saleRepo:  new(mockSaleRepo),
		publisher: &recordingPublisher{},
		customer:  customer,
		branch:    branch,
		product:   product,
	}
	service := salesapp.NewSaleService(
		api.saleRepo,
		&refRepo[sales.Customer]{byID: map[uuid.UUID]*sales.Customer{customer.ID: customer}},
		&refRepo[sales.Branch]{byID: map[uuid.UUID]*sales.Branch{branch.ID: branch}},
		&refRepo[sales.Product]{byID: map[uuid.UUID]*sales.Product{product.ID: product}},
		nil,
	)
	service.SetEventPublisher(api.publisher)

	api.engine = gin.New()
	api.engine.Use(middleware.RequestID())
	router.NewRouter(api.engine).Register(router.SaleRoutes(handler.NewSaleHandler(service))).Setup()
	return api
}

func (a *saleAPI) storedSale(t *testing.T, quantity int) *sales.Sale {
	t.Helper()
	sale, err := sales.NewSale("S-0001", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), a.customer, a.branch)
	require.NoError(t, err)
	item, err := sales.NewSaleItem(a.product, quantity)
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(item))
	sale.ClearDomainEvents()
	return sale
}

func (a *saleAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp.Data)
	return data
}

func TestSaleHandler_Create(t *testing.T) {
	t.Run("records a discounted sale", func(t *testing.T) {
		api := newSaleAPI(t)
		api.saleRepo.On("Create", mock.Anything, mock.AnythingOfType("*sales.Sale")).Return(nil)

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales", map[string]any{
			"sale_number": "S-1001",
			"sale_date":   "2024-05-01T10:00:00Z",
			"customer_id": api.customer.ID,
			"branch_id":   api.branch.ID,
			"items": []map[string]any{
				{"product_id": api.product.ID, "quantity": 5},
			},
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		data := dataMap(t, resp)
		assert.Equal(t, "S-1001", data["sale_number"])
		assert.Equal(t, "45", data["total_amount"])
		require.Len(t, api.publisher.events, 1)
		assert.Equal(t, sales.EventTypeSaleCreated, api.publisher.events[0].EventType())
		api.saleRepo.AssertExpectations(t)
	})

	t.Run("rejects a quantity above the limit", func(t *testing.T) {
		api := newSaleAPI(t)

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales", map[string]any{
			"sale_number": "S-1002",
			"sale_date":   "2024-05-01T10:00:00Z",
			"customer_id": api.customer.ID,
			"branch_id":   api.branch.ID,
			"items": []map[string]any{
				{"product_id": api.product.ID, "quantity": 21},
			},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
		api.saleRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newSaleAPI(t)

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales", `{"sale_number":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("unknown customer is not found", func(t *testing.T) {
		api := newSaleAPI(t)

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales", map[string]any{
			"sale_number": "S-1003",
			"sale_date":   "2024-05-01T10:00:00Z",
			"customer_id": uuid.New(),
			"branch_id":   api.branch.ID,
			"items": []map[string]any{
				{"product_id": api.product.ID, "quantity": 1},
			},
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "Customer")
	})
}

func TestSaleHandler_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := newSaleAPI(t)
		sale := api.storedSale(t, 4)
		api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)

		w, resp := api.do(t, http.MethodGet, "/api/v1/sales/"+sale.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, resp)
		assert.Equal(t, sale.ID.String(), data["id"])
		assert.Equal(t, "36", data["total_amount"])
	})

	t.Run("absent sale is 404", func(t *testing.T) {
		api := newSaleAPI(t)
		id := uuid.New()
		api.saleRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		w, resp := api.do(t, http.MethodGet, "/api/v1/sales/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		api := newSaleAPI(t)

		w, resp := api.do(t, http.MethodGet, "/api/v1/sales/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		api.saleRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestSaleHandler_GetByNumber(t *testing.T) {
	api := newSaleAPI(t)
	sale := api.storedSale(t, 1)
	api.saleRepo.On("FindBySaleNumber", mock.Anything, "S-0001").Return(sale, nil)
	api.saleRepo.On("FindBySaleNumber", mock.Anything, "S-9999").Return(nil, nil)

	w, resp := api.do(t, http.MethodGet, "/api/v1/sales/by-number/S-0001", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S-0001", dataMap(t, resp)["sale_number"])

	w, resp = api.do(t, http.MethodGet, "/api/v1/sales/by-number/S-9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Sale with number S-9999 not found", resp.Error.Message)
}

func TestSaleHandler_List(t *testing.T) {
	api := newSaleAPI(t)
	sale := api.storedSale(t, 2)
	api.saleRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 1
	})).Return([]sales.Sale{*sale}, int64(3), nil)

	w, resp := api.do(t, http.MethodGet, "/api/v1/sales?page=2&page_size=1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 1, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestSaleHandler_ListByDateRange(t *testing.T) {
	t.Run("inclusive window", func(t *testing.T) {
		api := newSaleAPI(t)
		start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)
		api.saleRepo.On("FindByDateRange", mock.Anything,
			mock.MatchedBy(start.Equal), mock.MatchedBy(end.Equal), mock.Anything,
		).Return([]sales.Sale{}, int64(0), nil)

		w, resp := api.do(t, http.MethodGet,
			"/api/v1/sales/date-range?start_date=2024-05-01T00:00:00Z&end_date=2024-05-31T23:59:59Z", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(0), resp.Meta.Total)
		api.saleRepo.AssertExpectations(t)
	})

	t.Run("end before start", func(t *testing.T) {
		api := newSaleAPI(t)

		w, resp := api.do(t, http.MethodGet,
			"/api/v1/sales/date-range?start_date=2024-05-31T00:00:00Z&end_date=2024-05-01T00:00:00Z", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("missing bound", func(t *testing.T) {
		api := newSaleAPI(t)

		w, _ := api.do(t, http.MethodGet, "/api/v1/sales/date-range?start_date=2024-05-01T00:00:00Z", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaleHandler_ListByOwner(t *testing.T) {
	api := newSaleAPI(t)
	sale := api.storedSale(t, 1)
	api.saleRepo.On("FindByCustomer", mock.Anything, api.customer.ID, mock.Anything).Return([]sales.Sale{*sale}, int64(1), nil)
	api.saleRepo.On("FindByBranch", mock.Anything, api.branch.ID, mock.Anything).Return([]sales.Sale{*sale}, int64(1), nil)

	w, resp := api.do(t, http.MethodGet, "/api/v1/sales/customer/"+api.customer.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w, resp = api.do(t, http.MethodGet, "/api/v1/sales/branch/"+api.branch.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), resp.Meta.Total)

	w, _ = api.do(t, http.MethodGet, "/api/v1/sales/branch/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaleHandler_Cancel(t *testing.T) {
	t.Run("cancels and publishes SaleCancelled", func(t *testing.T) {
		api := newSaleAPI(t)
		sale := api.storedSale(t, 10)
		api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)
		api.saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, dataMap(t, resp)["is_cancelled"])
		require.Len(t, api.publisher.events, 1)
		assert.Equal(t, sales.EventTypeSaleCancelled, api.publisher.events[0].EventType())
	})

	t.Run("concurrent modification is a conflict", func(t *testing.T) {
		api := newSaleAPI(t)
		sale := api.storedSale(t, 1)
		api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)
		api.saleRepo.On("SaveWithLock", mock.Anything, sale).
			Return(shared.NewDomainError(shared.CodeConcurrencyConflict, "The sale has been modified by another request"))

		w, resp := api.do(t, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConcurrentModification, resp.Error.Code)
		assert.Empty(t, api.publisher.events)
	})
}

func TestSaleHandler_CancelItem(t *testing.T) {
	t.Run("cancels the line", func(t *testing.T) {
		api := newSaleAPI(t)
		sale := api.storedSale(t, 4)
		itemID := sale.Items[0].ID
		api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)
		api.saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

		w, resp := api.do(t, http.MethodPost,
			"/api/v1/sales/"+sale.ID.String()+"/items/"+itemID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0", dataMap(t, resp)["total_amount"])
		require.Len(t, api.publisher.events, 1)
		assert.Equal(t, sales.EventTypeItemCancelled, api.publisher.events[0].EventType())
	})

	t.Run("unknown item", func(t *testing.T) {
		api := newSaleAPI(t)
		sale := api.storedSale(t, 4)
		api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)

		w, resp := api.do(t, http.MethodPost,
			"/api/v1/sales/"+sale.ID.String()+"/items/"+uuid.NewString()+"/cancel", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
		api.saleRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestSaleHandler_Update(t *testing.T) {
	api := newSaleAPI(t)
	sale := api.storedSale(t, 2)
	api.saleRepo.On("FindByID", mock.Anything, sale.ID).Return(sale, nil)
	api.saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)

	w, resp := api.do(t, http.MethodPut, "/api/v1/sales/"+sale.ID.String(), map[string]any{
		"sale_number": "S-0001",
		"sale_date":   "2024-05-02T10:00:00Z",
		"customer_id": api.customer.ID,
		"branch_id":   api.branch.ID,
		"items": []map[string]any{
			{"item_id": sale.Items[0].ID, "product_id": api.product.ID, "quantity": 12},
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "96", data["total_amount"])
	require.Len(t, api.publisher.events, 1)
	assert.Equal(t, sales.EventTypeSaleModified, api.publisher.events[0].EventType())
}
