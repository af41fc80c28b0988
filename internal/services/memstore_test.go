package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"retail_backoffice/internal/models"
	"retail_backoffice/internal/repositories"

	"github.com/shopspring/decimal"
)

// memState is the content of the in-memory store.
type memState struct {
	stores    map[int64]models.Store
	users     map[int64]models.User
	products  map[int64]models.Product
	inventory map[int64]models.InventoryRecord
	movements []models.InventoryMovement
	groups    map[int64]models.SaleGroup
	lines     map[int64]models.SaleLine
	customers map[int64]models.Customer
	debts     map[int64]models.DebtRecord
	payments  []models.PaymentRecord
	expenses  map[int64]models.Expense
	nextID    int64
}

func newMemState() memState {
	return memState{
		stores:    map[int64]models.Store{},
		users:     map[int64]models.User{},
		products:  map[int64]models.Product{},
		inventory: map[int64]models.InventoryRecord{},
		groups:    map[int64]models.SaleGroup{},
		lines:     map[int64]models.SaleLine{},
		customers: map[int64]models.Customer{},
		debts:     map[int64]models.DebtRecord{},
		expenses:  map[int64]models.Expense{},
	}
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	c := s
	c.stores = copyMap(s.stores)
	c.users = copyMap(s.users)
	c.products = copyMap(s.products)
	c.inventory = copyMap(s.inventory)
	c.movements = append([]models.InventoryMovement(nil), s.movements...)
	c.groups = copyMap(s.groups)
	c.lines = make(map[int64]models.SaleLine, len(s.lines))
	for k, l := range s.lines {
		l.DeviceIDs = append([]string(nil), l.DeviceIDs...)
		l.DeviceSizes = append([]string(nil), l.DeviceSizes...)
		c.lines[k] = l
	}
	c.customers = copyMap(s.customers)
	c.debts = copyMap(s.debts)
	c.payments = append([]models.PaymentRecord(nil), s.payments...)
	c.expenses = copyMap(s.expenses)
	return c
}

// memDB implements repositories.Database and every repository interface.
// Begin snapshots the state and Rollback restores it.
type memDB struct {
	state    memState
	snapshot *memState

	failOn       map[string]error
	failRollback bool
	onBegin      func(*memState)
	begins       int
	commits      int
	rollbacks    int
}

func newMemDB() *memDB {
	return &memDB{state: newMemState(), failOn: map[string]error{}}
}

func (m *memDB) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

// money stores d the way a NUMERIC(14, 2) column does.
func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// check mirrors the CHECK constraints of schema.sql.
func check(conds ...bool) error {
	for _, ok := range conds {
		if !ok {
			return repositories.ErrCheckViolation
		}
	}
	return nil
}

func (m *memDB) fail(op string) error {
	if err, ok := m.failOn[op]; ok {
		return err
	}
	return nil
}

func (m *memDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errors.New("memDB: raw SQL not supported")
}

func (m *memDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *memDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("memDB: raw SQL not supported")
}

func (m *memDB) Begin(ctx context.Context) (repositories.Tx, error) {
	if err := m.fail("Begin"); err != nil {
		return nil, err
	}
	m.begins++
	if m.onBegin != nil {
		m.onBegin(&m.state)
	}
	snap := m.state.clone()
	m.snapshot = &snap
	return &memTx{memDB: m}, nil
}

type memTx struct {
	*memDB
	done bool
}

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	if err := t.fail("Commit"); err != nil {
		return err
	}
	t.done = true
	t.snapshot = nil
	t.commits++
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	if t.failRollback {
		return errors.New("connection lost during rollback")
	}
	t.done = true
	t.state = *t.snapshot
	t.snapshot = nil
	t.rollbacks++
	return nil
}

// --- products ---

func (m *memDB) CreateProduct(ctx context.Context, _ repositories.SQLExecutor, p *models.Product) error {
	if err := m.fail("CreateProduct"); err != nil {
		return err
	}
	if err := check(!money(p.PurchasePrice).IsNegative(), p.PurchaseQty >= 0, !money(p.SellingPrice).IsNegative()); err != nil {
		return err
	}
	p.ID = m.id()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.state.products[p.ID] = *p
	return nil
}

func (m *memDB) GetProductByID(ctx context.Context, _ repositories.SQLExecutor, storeID, id int64) (*models.Product, error) {
	p, ok := m.state.products[id]
	if !ok || p.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *memDB) GetProducts(ctx context.Context, storeID int64, filters models.ProductFilters) ([]models.Product, int, error) {
	out := []models.Product{}
	for _, p := range m.state.products {
		if p.StoreID == storeID && strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			if inv, ok := m.state.inventory[p.ID]; ok {
				inv.ProductName = p.Name
				p.Inventory = &inv
			}
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memDB) AddPurchaseBatch(ctx context.Context, _ repositories.SQLExecutor, storeID, id int64, qty int, cost decimal.Decimal) (*models.Product, error) {
	p, ok := m.state.products[id]
	if !ok || p.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	p.PurchaseQty += qty
	p.PurchasePrice = p.PurchasePrice.Add(cost)
	if err := check(p.PurchaseQty >= 0, !money(p.PurchasePrice).IsNegative()); err != nil {
		return nil, err
	}
	m.state.products[id] = p
	return &p, nil
}

// --- inventory ---

func (m *memDB) CreateInventory(ctx context.Context, _ repositories.SQLExecutor, rec *models.InventoryRecord) error {
	if err := m.fail("CreateInventory"); err != nil {
		return err
	}
	if rec.AvailableQty < 0 {
		return repositories.ErrCheckViolation
	}
	rec.LastUpdated = time.Now().UTC()
	stored := *rec
	stored.ProductName = ""
	m.state.inventory[rec.ProductID] = stored
	return nil
}

func (m *memDB) GetInventory(ctx context.Context, _ repositories.SQLExecutor, storeID, productID int64) (*models.InventoryRecord, error) {
	rec, ok := m.state.inventory[productID]
	if !ok || rec.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	rec.ProductName = m.state.products[productID].Name
	return &rec, nil
}

func (m *memDB) GetInventoryList(ctx context.Context, storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	out := []models.InventoryRecord{}
	for _, rec := range m.state.inventory {
		if rec.StoreID != storeID {
			continue
		}
		if filters.LowStockThreshold != nil && rec.AvailableQty > *filters.LowStockThreshold {
			continue
		}
		rec.ProductName = m.state.products[rec.ProductID].Name
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, len(out), nil
}

func (m *memDB) AdjustStock(ctx context.Context, _ repositories.SQLExecutor, storeID, productID int64, availableDelta, soldDelta int) (*models.InventoryRecord, error) {
	if err := m.fail("AdjustStock"); err != nil {
		return nil, err
	}
	rec, ok := m.state.inventory[productID]
	if !ok || rec.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	if rec.AvailableQty+availableDelta < 0 {
		return nil, repositories.ErrConditionFailed
	}
	rec.AvailableQty += availableDelta
	rec.QuantitySold += soldDelta
	if rec.QuantitySold < 0 {
		rec.QuantitySold = 0
	}
	rec.LastUpdated = time.Now().UTC()
	m.state.inventory[productID] = rec
	return &rec, nil
}

// --- movements ---

func (m *memDB) CreateMovement(ctx context.Context, _ repositories.SQLExecutor, mv *models.InventoryMovement) error {
	if err := m.fail("CreateMovement"); err != nil {
		return err
	}
	mv.ID = m.id()
	mv.MovementDate = time.Now().UTC()
	m.state.movements = append(m.state.movements, *mv)
	return nil
}

func (m *memDB) GetMovements(ctx context.Context, storeID int64, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	out := []models.InventoryMovement{}
	for _, mv := range m.state.movements {
		if mv.StoreID != storeID {
			continue
		}
		if filters.ProductID != nil && mv.ProductID != *filters.ProductID {
			continue
		}
		if filters.MovementType != nil && mv.MovementType != *filters.MovementType {
			continue
		}
		out = append(out, mv)
	}
	return out, len(out), nil
}

// --- sales ---

func (m *memDB) CreateSaleGroup(ctx context.Context, _ repositories.SQLExecutor, g *models.SaleGroup) error {
	if err := m.fail("CreateSaleGroup"); err != nil {
		return err
	}
	if err := check(!money(g.TotalAmount).IsNegative()); err != nil {
		return err
	}
	if g.IdempotencyKey != nil {
		for _, existing := range m.state.groups {
			if existing.StoreID == g.StoreID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *g.IdempotencyKey {
				return repositories.ErrDuplicateKey
			}
		}
	}
	g.ID = m.id()
	g.CreatedAt = time.Now().UTC()
	stored := *g
	stored.Lines = nil
	m.state.groups[g.ID] = stored
	return nil
}

func (m *memDB) GetSaleGroupByID(ctx context.Context, _ repositories.SQLExecutor, storeID, groupID int64) (*models.SaleGroup, error) {
	g, ok := m.state.groups[groupID]
	if !ok || g.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return &g, nil
}

func (m *memDB) GetSaleGroupByIdempotencyKey(ctx context.Context, _ repositories.SQLExecutor, storeID int64, key string) (*models.SaleGroup, error) {
	for _, g := range m.state.groups {
		if g.StoreID == storeID && g.IdempotencyKey != nil && *g.IdempotencyKey == key {
			return &g, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memDB) GetSaleGroups(ctx context.Context, storeID int64, filters models.SaleFilters) ([]models.SaleGroup, int, error) {
	out := []models.SaleGroup{}
	for _, g := range m.state.groups {
		if g.StoreID != storeID {
			continue
		}
		if filters.PaymentMethod != nil && g.PaymentMethod != *filters.PaymentMethod {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memDB) RecalculateSaleGroupTotal(ctx context.Context, _ repositories.SQLExecutor, storeID, groupID int64) (decimal.Decimal, error) {
	if err := m.fail("RecalculateSaleGroupTotal"); err != nil {
		return decimal.Zero, err
	}
	g, ok := m.state.groups[groupID]
	if !ok || g.StoreID != storeID {
		return decimal.Zero, repositories.ErrNotFound
	}
	total := decimal.Zero
	for _, l := range m.state.lines {
		if l.SaleGroupID == groupID {
			total = total.Add(l.Amount)
		}
	}
	g.TotalAmount = total
	m.state.groups[groupID] = g
	return total, nil
}

func (m *memDB) DeleteSaleGroup(ctx context.Context, _ repositories.SQLExecutor, storeID, groupID int64) error {
	if err := m.fail("DeleteSaleGroup"); err != nil {
		return err
	}
	g, ok := m.state.groups[groupID]
	if !ok || g.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(m.state.groups, groupID)
	for id, l := range m.state.lines {
		if l.SaleGroupID == groupID {
			delete(m.state.lines, id)
		}
	}
	return nil
}

func (m *memDB) CreateSaleLine(ctx context.Context, _ repositories.SQLExecutor, l *models.SaleLine) error {
	if err := m.fail("CreateSaleLine"); err != nil {
		return err
	}
	if _, ok := m.state.groups[l.SaleGroupID]; !ok {
		return repositories.ErrForeignKey
	}
	if err := checkSaleLine(l); err != nil {
		return err
	}
	l.ID = m.id()
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	stored := *l
	stored.DeviceIDs = append([]string(nil), l.DeviceIDs...)
	stored.DeviceSizes = append([]string(nil), l.DeviceSizes...)
	m.state.lines[l.ID] = stored
	return nil
}

func checkSaleLine(l *models.SaleLine) error {
	return check(l.Quantity > 0, money(l.UnitPrice).IsPositive(), !money(l.Amount).IsNegative())
}

func (m *memDB) withProductName(l models.SaleLine) models.SaleLine {
	l.ProductName = m.state.products[l.ProductID].Name
	l.DeviceIDs = append([]string{}, l.DeviceIDs...)
	l.DeviceSizes = append([]string{}, l.DeviceSizes...)
	return l
}

func (m *memDB) GetSaleLineByID(ctx context.Context, _ repositories.SQLExecutor, storeID, lineID int64, forUpdate bool) (*models.SaleLine, error) {
	l, ok := m.state.lines[lineID]
	if !ok || l.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	l = m.withProductName(l)
	return &l, nil
}

func (m *memDB) GetSaleLinesByGroupID(ctx context.Context, _ repositories.SQLExecutor, storeID, groupID int64) ([]models.SaleLine, error) {
	out := []models.SaleLine{}
	for _, l := range m.state.lines {
		if l.StoreID == storeID && l.SaleGroupID == groupID {
			out = append(out, m.withProductName(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) UpdateSaleLine(ctx context.Context, _ repositories.SQLExecutor, l *models.SaleLine) error {
	if err := m.fail("UpdateSaleLine"); err != nil {
		return err
	}
	existing, ok := m.state.lines[l.ID]
	if !ok || existing.StoreID != l.StoreID {
		return repositories.ErrNotFound
	}
	if err := checkSaleLine(l); err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()
	stored := *l
	stored.ProductName = ""
	m.state.lines[l.ID] = stored
	return nil
}

func (m *memDB) DeleteSaleLine(ctx context.Context, _ repositories.SQLExecutor, storeID, lineID int64) error {
	if err := m.fail("DeleteSaleLine"); err != nil {
		return err
	}
	l, ok := m.state.lines[lineID]
	if !ok || l.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(m.state.lines, lineID)
	return nil
}

func (m *memDB) CountSaleLines(ctx context.Context, _ repositories.SQLExecutor, storeID, groupID int64) (int, error) {
	n := 0
	for _, l := range m.state.lines {
		if l.StoreID == storeID && l.SaleGroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (m *memDB) FindLinesWithDeviceIDs(ctx context.Context, _ repositories.SQLExecutor, storeID int64, ids []string, excludeLineID int64) ([]models.SaleLine, error) {
	wanted := map[string]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	out := []models.SaleLine{}
	for _, l := range m.state.lines {
		if l.StoreID != storeID || l.ID == excludeLineID {
			continue
		}
		for _, id := range l.DeviceIDs {
			if wanted[id] {
				out = append(out, m.withProductName(l))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- customers ---

func (m *memDB) CreateCustomer(ctx context.Context, _ repositories.SQLExecutor, c *models.Customer) error {
	if c.PhoneNumber != nil {
		for _, existing := range m.state.customers {
			if existing.StoreID == c.StoreID && existing.PhoneNumber != nil && *existing.PhoneNumber == *c.PhoneNumber {
				return repositories.ErrDuplicateKey
			}
		}
	}
	c.ID = m.id()
	m.state.customers[c.ID] = *c
	return nil
}

func (m *memDB) GetCustomerByID(ctx context.Context, _ repositories.SQLExecutor, storeID, id int64) (*models.Customer, error) {
	c, ok := m.state.customers[id]
	if !ok || c.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (m *memDB) GetCustomers(ctx context.Context, storeID int64, filters models.CustomerFilters) ([]models.Customer, int, error) {
	out := []models.Customer{}
	for _, c := range m.state.customers {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, len(out), nil
}

func (m *memDB) UpdateCustomer(ctx context.Context, _ repositories.SQLExecutor, c *models.Customer) error {
	existing, ok := m.state.customers[c.ID]
	if !ok || existing.StoreID != c.StoreID {
		return repositories.ErrNotFound
	}
	m.state.customers[c.ID] = *c
	return nil
}

func (m *memDB) DeleteCustomer(ctx context.Context, _ repositories.SQLExecutor, storeID, id int64) error {
	c, ok := m.state.customers[id]
	if !ok || c.StoreID != storeID {
		return repositories.ErrNotFound
	}
	for _, d := range m.state.debts {
		if d.CustomerID == id {
			return repositories.ErrForeignKey
		}
	}
	delete(m.state.customers, id)
	return nil
}

// --- debts ---

func (m *memDB) CreateDebt(ctx context.Context, _ repositories.SQLExecutor, d *models.DebtRecord) error {
	if err := m.fail("CreateDebt"); err != nil {
		return err
	}
	if err := check(d.Qty > 0, money(d.AmountOwed).IsPositive()); err != nil {
		return err
	}
	d.ID = m.id()
	d.CreatedAt = time.Now().UTC()
	if d.DebtDate.IsZero() {
		d.DebtDate = d.CreatedAt
	}
	m.state.debts[d.ID] = *d
	d.ApplyPaid(decimal.Zero)
	return nil
}

func (m *memDB) paidFor(debtID int64) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range m.state.payments {
		if p.DebtID == debtID {
			paid = paid.Add(p.AmountPaid)
		}
	}
	return paid
}

func (m *memDB) GetDebtByID(ctx context.Context, _ repositories.SQLExecutor, storeID, debtID int64, forUpdate bool) (*models.DebtRecord, error) {
	d, ok := m.state.debts[debtID]
	if !ok || d.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	d.CustomerName = m.state.customers[d.CustomerID].FullName
	d.ProductName = m.state.products[d.ProductID].Name
	d.ApplyPaid(m.paidFor(debtID))
	return &d, nil
}

func (m *memDB) GetDebts(ctx context.Context, storeID int64, filters models.DebtFilters) ([]models.DebtRecord, int, error) {
	out := []models.DebtRecord{}
	for _, d := range m.state.debts {
		if d.StoreID != storeID {
			continue
		}
		if filters.CustomerID != nil && d.CustomerID != *filters.CustomerID {
			continue
		}
		d.ApplyPaid(m.paidFor(d.ID))
		if filters.OutstandingOnly && !d.RemainingBalance.IsPositive() {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].RemainingBalance.IsPositive(), out[j].RemainingBalance.IsPositive()
		if oi != oj {
			return oi
		}
		if !out[i].DebtDate.Equal(out[j].DebtDate) {
			return out[i].DebtDate.Before(out[j].DebtDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, len(out), nil
}

func (m *memDB) CreatePayment(ctx context.Context, _ repositories.SQLExecutor, p *models.PaymentRecord) error {
	if err := m.fail("CreatePayment"); err != nil {
		return err
	}
	if err := check(money(p.AmountPaid).IsPositive()); err != nil {
		return err
	}
	p.ID = m.id()
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now().UTC()
	}
	m.state.payments = append(m.state.payments, *p)
	return nil
}

func (m *memDB) SumPayments(ctx context.Context, _ repositories.SQLExecutor, debtID int64) (decimal.Decimal, error) {
	return m.paidFor(debtID), nil
}

func (m *memDB) GetPaymentsByDebtID(ctx context.Context, _ repositories.SQLExecutor, storeID, debtID int64) ([]models.PaymentRecord, error) {
	out := []models.PaymentRecord{}
	for _, p := range m.state.payments {
		if p.StoreID == storeID && p.DebtID == debtID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- expenses ---

func (m *memDB) CreateExpense(ctx context.Context, _ repositories.SQLExecutor, e *models.Expense) error {
	if err := check(money(e.Amount).IsPositive()); err != nil {
		return err
	}
	e.ID = m.id()
	e.CreatedAt = time.Now().UTC()
	if e.ExpenseDate.IsZero() {
		e.ExpenseDate = e.CreatedAt
	}
	m.state.expenses[e.ID] = *e
	return nil
}

func (m *memDB) GetExpenses(ctx context.Context, storeID int64, filters models.ExpenseFilters) ([]models.Expense, int, decimal.Decimal, error) {
	out := []models.Expense{}
	sum := decimal.Zero
	for _, e := range m.state.expenses {
		if e.StoreID == storeID {
			out = append(out, e)
			sum = sum.Add(e.Amount)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), sum, nil
}

func (m *memDB) DeleteExpense(ctx context.Context, _ repositories.SQLExecutor, storeID, id int64) error {
	e, ok := m.state.expenses[id]
	if !ok || e.StoreID != storeID {
		return repositories.ErrNotFound
	}
	delete(m.state.expenses, id)
	return nil
}

// --- stores and users ---

func (m *memDB) CreateStore(ctx context.Context, _ repositories.SQLExecutor, s *models.Store) error {
	s.ID = m.id()
	s.CreatedAt = time.Now().UTC()
	m.state.stores[s.ID] = *s
	return nil
}

func (m *memDB) GetStoreByID(ctx context.Context, storeID int64) (*models.Store, error) {
	s, ok := m.state.stores[storeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &s, nil
}

func (m *memDB) CreateUser(ctx context.Context, _ repositories.SQLExecutor, u *models.User) error {
	for _, existing := range m.state.users {
		if existing.Username == u.Username {
			return repositories.ErrDuplicateKey
		}
	}
	u.ID = m.id()
	m.state.users[u.ID] = *u
	return nil
}

func (m *memDB) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.state.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memDB) FindUserByID(ctx context.Context, storeID, userID int64) (*models.User, error) {
	u, ok := m.state.users[userID]
	if !ok || u.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (m *memDB) GetUsersByStore(ctx context.Context, storeID int64) ([]models.User, error) {
	out := []models.User{}
	for _, u := range m.state.users {
		if u.StoreID == storeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) UpdateUserStatus(ctx context.Context, _ repositories.SQLExecutor, storeID, userID int64, isActive bool) error {
	u, ok := m.state.users[userID]
	if !ok || u.StoreID != storeID {
		return repositories.ErrNotFound
	}
	u.IsActive = isActive
	m.state.users[userID] = u
	return nil
}

var (
	_ repositories.Database                    = (*memDB)(nil)
	_ repositories.ProductRepository           = (*memDB)(nil)
	_ repositories.InventoryRepository         = (*memDB)(nil)
	_ repositories.InventoryMovementRepository = (*memDB)(nil)
	_ repositories.SaleRepository              = (*memDB)(nil)
	_ repositories.CustomerRepository          = (*memDB)(nil)
	_ repositories.DebtRepository              = (*memDB)(nil)
	_ repositories.ExpenseRepository           = (*memDB)(nil)
	_ repositories.AuthRepository              = (*memDB)(nil)
)
