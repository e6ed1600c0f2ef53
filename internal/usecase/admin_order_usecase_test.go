package usecase_test

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminFixture() (*OrderRepoMock, *OrderItemRepoMock, *StatusHistoryRepoMock, *AuditRepoMock, *usecase.AdminOrderUsecase) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	items := new(OrderItemRepoMock)
	histories := new(StatusHistoryRepoMock)
	audit := new(AuditRepoMock)

	tx.Repos = &TxReposMock{
		orders:          orders,
		orderItems:      items,
		statusHistories: histories,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return orders, items, histories, audit, usecase.NewAdminOrderUsecase(tx, audit)
}

func TestAdminList_PassesFilter(t *testing.T) {
	orders, items, _, _, uc := newAdminFixture()

	userID := int64(10)
	filter := repo.AdminOrderListFilter{
		Page:        1,
		Limit:       20,
		OrderStatus: "SHIPPED",
		UserID:      &userID,
	}
	orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{
		{ID: 1, UserID: 10, OrderStatus: model.OrderStatusShipped},
	}, int64(1), nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	outs, err := uc.List(context.Background(), filter)
	assert.NoError(t, err)
	assert.Len(t, outs, 1)
	assert.Equal(t, "SHIPPED", outs[0].OrderStatus)
	orders.AssertExpectations(t)
}

func TestAdminList_InvalidPaging(t *testing.T) {
	_, _, _, _, uc := newAdminFixture()

	_, err := uc.List(context.Background(), repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")

	_, err = uc.List(context.Background(), repo.AdminOrderListFilter{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestAdminDetail_NoOwnershipCheck(t *testing.T) {
	orders, items, histories, _, uc := newAdminFixture()

	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:          1,
		UserID:      999,
		OrderStatus: model.OrderStatusDelivered,
	}, nil)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)
	histories.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.StatusHistory{
		{OrderID: 1, Status: "PENDING"},
		{OrderID: 1, Status: "DELIVERED"},
	}, nil)

	out, err := uc.Detail(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, int64(999), out.UserID)
	assert.Len(t, out.History, 2)
}

func TestAdminDetail_NotFound(t *testing.T) {
	orders, _, _, _, uc := newAdminFixture()

	orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.Detail(context.Background(), 5)
	assertErrContains(t, err, "not found")
}

func TestAdminListAuditLogs(t *testing.T) {
	_, _, _, audit, uc := newAdminFixture()

	action := model.AuditActionUpdateRefund
	filter := repo.AuditLogFilter{Limit: 20, Action: &action}
	audit.On("List", mock.Anything, filter).Return([]model.AuditLog{
		{
			ID:          1,
			ActorUserID: 99,
			Action:      model.AuditActionUpdateRefund,
			ResourceID:  4,
			BeforeJSON:  `{"refund_status":"PENDING"}`,
			AfterJSON:   `{"refund_status":"PROCESSING"}`,
		},
	}, nil)

	outs, err := uc.ListAuditLogs(context.Background(), filter)
	assert.NoError(t, err)
	if assert.Len(t, outs, 1) {
		assert.Equal(t, "UPDATE_REFUND", outs[0].Action)
		assert.Equal(t, int64(99), outs[0].ActorUserID)
	}
}
