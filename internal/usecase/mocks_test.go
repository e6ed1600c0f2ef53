package usecase_test

import (
	"context"
	"strings"
	"testing"

	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/notifier"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders          repo.OrderRepository
	orderItems      repo.OrderItemRepository
	statusHistories repo.StatusHistoryRepository
	auditLogs       repo.AuditLogRepository
	users           repo.UserRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository                  { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository          { return r.orderItems }
func (r *TxReposMock) StatusHistories() repo.StatusHistoryRepository { return r.statusHistories }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository            { return r.auditLogs }
func (r *TxReposMock) Users() repo.UserRepository                    { return r.users }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) Save(ctx context.Context, order model.Order, expectedVersion int64) error {
	args := m.Called(ctx, order, expectedVersion)
	return args.Error(0)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListByDeliveryAgent(ctx context.Context, agentID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, agentID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type StatusHistoryRepoMock struct{ mock.Mock }

func (m *StatusHistoryRepoMock) Append(ctx context.Context, h model.StatusHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

func (m *StatusHistoryRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.StatusHistory, error) {
	args := m.Called(ctx, orderID)
	rows, _ := args.Get(0).([]model.StatusHistory)
	return rows, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

// =====================
// 外部コラボレータのmock
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateSession(ctx context.Context, amount int64, customer gateway.CustomerDetails) (gateway.Session, error) {
	args := m.Called(ctx, amount, customer)
	s, _ := args.Get(0).(gateway.Session)
	return s, args.Error(1)
}

func (m *GatewayMock) GetStatus(ctx context.Context, gatewayOrderRef string) (gateway.Status, error) {
	args := m.Called(ctx, gatewayOrderRef)
	s, _ := args.Get(0).(gateway.Status)
	return s, args.Error(1)
}

type NotifierMock struct {
	Events []notifier.PaymentEvent
}

func (n *NotifierMock) NotifyPayment(ctx context.Context, userID int64, ev notifier.PaymentEvent) {
	n.Events = append(n.Events, ev)
}

// =====================
// Helper: error contains（エラー実装の詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
