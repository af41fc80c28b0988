package services

import (
	"context"
	"testing"
	"time"

	"retail_backoffice/internal/config"
	"retail_backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *memDB
	sess     models.Session
	ledger   InventoryLedger
	products ProductService
	sales    SaleService
	debts    DebtService
}

type envConfig struct {
	soldPolicy   string
	globalDevice bool
	locker       Locker
}

type envOption func(*envConfig)

func withSoldPolicy(policy string) envOption {
	return func(c *envConfig) { c.soldPolicy = policy }
}

func withGlobalDeviceCheck() envOption {
	return func(c *envConfig) { c.globalDevice = true }
}

func withLocker(l Locker) envOption {
	return func(c *envConfig) { c.locker = l }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{soldPolicy: config.SoldCounterLifetime}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := newMemDB()
	ledger := NewInventoryLedger(db, db, db, db, InventoryLedgerConfig{
		SoldCounterPolicy: cfg.soldPolicy,
		OperationTimeout:  5 * time.Second,
	})
	return &testEnv{
		db:       db,
		sess:     models.Session{StoreID: 1, UserID: 10, Username: "cashier", Role: models.RoleStaff},
		ledger:   ledger,
		products: NewProductService(db, ledger, db, 5*time.Second),
		sales: NewSaleService(db, ledger, db, cfg.locker, SaleServiceConfig{
			OperationTimeout:    5 * time.Second,
			GlobalDeviceIDCheck: cfg.globalDevice,
		}),
		debts: NewDebtService(db, db, db, db, 5*time.Second),
	}
}

func (e *testEnv) product(t *testing.T, name string, qty int) int64 {
	t.Helper()
	p, err := e.products.CreateProduct(context.Background(), e.sess, CreateProductRequest{
		Name:          name,
		PurchasePrice: decimal.NewFromInt(int64(qty) * 100),
		PurchaseQty:   qty,
		SellingPrice:  decimal.NewFromInt(150),
	})
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) stock(t *testing.T, productID int64) models.InventoryRecord {
	t.Helper()
	rec, err := e.ledger.GetInventory(context.Background(), e.sess, productID)
	require.NoError(t, err)
	return *rec
}

func (e *testEnv) sell(t *testing.T, productID int64, qty int) *models.SaleGroup {
	t.Helper()
	g, err := e.sales.CreateSale(context.Background(), e.sess, CreateSaleRequest{
		PaymentMethod: "cash",
		Lines:         []SaleLineRequest{{ProductID: productID, Quantity: qty, QuantityManual: true, UnitPrice: decimal.NewFromInt(150)}},
	})
	require.NoError(t, err)
	return g
}

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
