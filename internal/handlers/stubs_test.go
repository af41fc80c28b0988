package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"retail_backoffice/internal/middleware"
	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"
	"retail_backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testSession = models.Session{StoreID: 1, UserID: 10, Username: "cashier", Role: models.RoleStaff}

// newTestEngine returns an engine that authenticates every request as sess.
func newTestEngine(sess *models.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
	r := gin.New()
	if sess != nil {
		s := *sess
		r.Use(func(c *gin.Context) {
			middleware.SetSession(c, s)
			c.Next()
		})
	}
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Meta    map[string]interface{} `json:"meta"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// --- services ---

type stubSaleService struct {
	createFn     func(req services.CreateSaleRequest) (*models.SaleGroup, error)
	editFn       func(lineID int64, req services.EditSaleLineRequest) (*models.SaleLine, error)
	deleteLineFn func(lineID int64) error
	deleteFn     func(groupID int64) error
	getFn        func(groupID int64) (*models.SaleGroup, error)
	listFn       func(filters models.SaleFilters) ([]models.SaleGroup, int, error)
}

func (s *stubSaleService) CreateSale(_ context.Context, _ models.Session, req services.CreateSaleRequest) (*models.SaleGroup, error) {
	return s.createFn(req)
}

func (s *stubSaleService) EditSaleLine(_ context.Context, _ models.Session, lineID int64, req services.EditSaleLineRequest) (*models.SaleLine, error) {
	return s.editFn(lineID, req)
}

func (s *stubSaleService) DeleteSaleLine(_ context.Context, _ models.Session, lineID int64) error {
	return s.deleteLineFn(lineID)
}

func (s *stubSaleService) DeleteSaleGroup(_ context.Context, _ models.Session, groupID int64) error {
	return s.deleteFn(groupID)
}

func (s *stubSaleService) GetSaleGroup(_ context.Context, _ models.Session, groupID int64) (*models.SaleGroup, error) {
	return s.getFn(groupID)
}

func (s *stubSaleService) ListSaleGroups(_ context.Context, _ models.Session, filters models.SaleFilters) ([]models.SaleGroup, int, error) {
	return s.listFn(filters)
}

type stubLedger struct {
	restockFn func(productID int64, req services.RestockRequest) (*models.InventoryRecord, error)
	getFn     func(productID int64) (*models.InventoryRecord, error)
	listFn    func(filters models.InventoryFilters) ([]models.InventoryRecord, int, error)
	getCalls  int
	listCalls int
}

func (s *stubLedger) CheckAvailability(context.Context, repositories.SQLExecutor, int64, int64, int) error {
	return nil
}

func (s *stubLedger) ApplySaleDelta(context.Context, repositories.SQLExecutor, models.Session, int64, int, string, *int64) (*models.InventoryRecord, error) {
	return nil, nil
}

func (s *stubLedger) SeedInventory(context.Context, repositories.SQLExecutor, models.Session, *models.Product) (*models.InventoryRecord, error) {
	return nil, nil
}

func (s *stubLedger) Restock(_ context.Context, _ models.Session, productID int64, req services.RestockRequest) (*models.InventoryRecord, error) {
	return s.restockFn(productID, req)
}

func (s *stubLedger) GetInventory(_ context.Context, _ models.Session, productID int64) (*models.InventoryRecord, error) {
	s.getCalls++
	return s.getFn(productID)
}

func (s *stubLedger) ListInventory(_ context.Context, _ models.Session, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	s.listCalls++
	return s.listFn(filters)
}

func (s *stubLedger) ListMovements(context.Context, models.Session, models.MovementFilters) ([]models.InventoryMovement, int, error) {
	return nil, 0, nil
}

type stubDebtService struct {
	paymentFn     func(debtID int64, req services.RecordPaymentRequest) (*models.PaymentRecord, error)
	listFn        func(filters models.DebtFilters) ([]models.DebtRecord, int, error)
	outstandingFn func(filters models.DebtFilters) ([]models.DebtRecord, int, error)
}

func (s *stubDebtService) RecordDebt(context.Context, models.Session, services.RecordDebtRequest) (*models.DebtRecord, error) {
	return nil, nil
}

func (s *stubDebtService) RecordPayment(_ context.Context, _ models.Session, debtID int64, req services.RecordPaymentRequest) (*models.PaymentRecord, error) {
	return s.paymentFn(debtID, req)
}

func (s *stubDebtService) GetDebt(context.Context, models.Session, int64) (*models.DebtRecord, error) {
	return nil, services.ErrDebtNotFound
}

func (s *stubDebtService) ListDebts(_ context.Context, _ models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	return s.listFn(filters)
}

func (s *stubDebtService) ListOutstanding(_ context.Context, _ models.Session, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	return s.outstandingFn(filters)
}

func (s *stubDebtService) ListPayments(context.Context, models.Session, int64) ([]models.PaymentRecord, error) {
	return nil, nil
}

type stubExpenseService struct {
	listFn func(filters models.ExpenseFilters) (*services.ExpenseList, error)
}

func (s *stubExpenseService) CreateExpense(context.Context, models.Session, services.CreateExpenseRequest) (*models.Expense, error) {
	return nil, nil
}

func (s *stubExpenseService) ListExpenses(_ context.Context, _ models.Session, filters models.ExpenseFilters) (*services.ExpenseList, error) {
	return s.listFn(filters)
}

func (s *stubExpenseService) DeleteExpense(context.Context, models.Session, int64) error {
	return nil
}

// memCache is an InventoryCache kept in process memory.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	owners      map[string]int64
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, owners: map[string]int64{}}
}

func (m *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) SetJSON(_ context.Context, storeID int64, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	m.owners[key] = storeID
	return nil
}

func (m *memCache) InvalidateStore(_ context.Context, storeID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
	for key, owner := range m.owners {
		if owner == storeID {
			delete(m.entries, key)
			delete(m.owners, key)
		}
	}
	return nil
}

var (
	_ services.SaleService     = (*stubSaleService)(nil)
	_ services.InventoryLedger = (*stubLedger)(nil)
	_ services.DebtService     = (*stubDebtService)(nil)
	_ services.ExpenseService  = (*stubExpenseService)(nil)
	_ InventoryCache           = (*memCache)(nil)
)
