package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPaymentFixture(retry usecase.RetryPolicy) (*OrderRepoMock, *StatusHistoryRepoMock, *GatewayMock, *NotifierMock, *usecase.PaymentUsecase) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	histories := new(StatusHistoryRepoMock)
	gw := new(GatewayMock)
	n := new(NotifierMock)

	tx.Repos = &TxReposMock{
		orders:          orders,
		statusHistories: histories,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return orders, histories, gw, n, usecase.NewPaymentUsecase(tx, gw, n, retry)
}

// テストでは実スリープがほぼ発生しないポリシーを使う
func fastRetry() usecase.RetryPolicy {
	return usecase.RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	}
}

// =====================
// ConfirmCODPayment
// =====================

func TestConfirmCOD_Success(t *testing.T) {
	orders, histories, _, n, uc := newPaymentFixture(fastRetry())

	agentID := agent.ID
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:              1,
		UserID:          10,
		PaymentMethod:   model.PaymentMethodCOD,
		PaymentStatus:   model.PaymentStatusPending,
		DeliveryAgentID: &agentID,
		Version:         2,
	}, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(saved model.Order) bool {
		return saved.PaymentStatus == model.PaymentStatusCompleted && saved.PaidAt != nil
	}), int64(2)).Return(nil)
	histories.On("Append", mock.Anything, mock.MatchedBy(func(h model.StatusHistory) bool {
		return h.Status == model.HistoryPaymentCompleted &&
			h.UpdatedByID == agent.ID &&
			h.Reason == "cash received"
	})).Return(nil)

	err := uc.ConfirmCODPayment(context.Background(), agent, 1, "cash received")
	assert.NoError(t, err)

	orders.AssertExpectations(t)
	histories.AssertExpectations(t)

	//成功したら購入者へ通知する
	if assert.Len(t, n.Events, 1) {
		assert.Equal(t, int64(1), n.Events[0].OrderID)
		assert.Equal(t, "COMPLETED", n.Events[0].PaymentStatus)
	}
}

func TestConfirmCOD_NonDelivery_Forbidden(t *testing.T) {
	_, _, _, _, uc := newPaymentFixture(fastRetry())

	err := uc.ConfirmCODPayment(context.Background(), customer, 1, "")
	assertErrContains(t, err, "forbidden")
}

func TestConfirmCOD_NotAssigned(t *testing.T) {
	orders, _, _, n, uc := newPaymentFixture(fastRetry())

	other := int64(55)
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:              1,
		PaymentMethod:   model.PaymentMethodCOD,
		PaymentStatus:   model.PaymentStatusPending,
		DeliveryAgentID: &other,
	}, nil)

	err := uc.ConfirmCODPayment(context.Background(), agent, 1, "")
	assertErrContains(t, err, "not assigned")
	assert.Empty(t, n.Events)
}

func TestConfirmCOD_NotCODMethod(t *testing.T) {
	orders, _, _, _, uc := newPaymentFixture(fastRetry())

	agentID := agent.ID
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:              1,
		PaymentMethod:   model.PaymentMethodUPI,
		PaymentStatus:   model.PaymentStatusPending,
		DeliveryAgentID: &agentID,
	}, nil)

	err := uc.ConfirmCODPayment(context.Background(), agent, 1, "")
	assertErrContains(t, err, "not COD")
}

func TestConfirmCOD_AlreadyCompleted(t *testing.T) {
	orders, histories, _, n, uc := newPaymentFixture(fastRetry())

	agentID := agent.ID
	orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{
		ID:              1,
		PaymentMethod:   model.PaymentMethodCOD,
		PaymentStatus:   model.PaymentStatusCompleted,
		DeliveryAgentID: &agentID,
	}, nil)

	err := uc.ConfirmCODPayment(context.Background(), agent, 1, "")
	assertErrContains(t, err, "payment is completed")

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	histories.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Empty(t, n.Events)
}

// =====================
// VerifyGatewayPayment
// =====================

func pendingGatewayOrder() model.Order {
	return model.Order{
		ID:              3,
		UserID:          10,
		TotalPrice:      8000,
		PaymentMethod:   model.PaymentMethodHostedGateway,
		OrderStatus:     model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		RefundStatus:    model.RefundStatusNotApplicable,
		GatewayOrderRef: "gw-ord-3",
		Version:         1,
	}
}

func TestVerify_Success_ConfirmsOrder(t *testing.T) {
	orders, histories, gw, n, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome:        gateway.OutcomeSuccess,
		TransactionRef: "txn-123",
	}, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(saved model.Order) bool {
		return saved.PaymentStatus == model.PaymentStatusCompleted &&
			saved.OrderStatus == model.OrderStatusConfirmed &&
			saved.GatewayTransactionRef == "txn-123" &&
			saved.PaidAt != nil
	}), int64(1)).Return(nil)
	//支払い完了と注文確定の2行
	histories.On("Append", mock.Anything, mock.MatchedBy(func(h model.StatusHistory) bool {
		return h.Status == model.HistoryPaymentCompleted && h.UpdatedByRole == "SYSTEM"
	})).Return(nil).Once()
	histories.On("Append", mock.Anything, mock.MatchedBy(func(h model.StatusHistory) bool {
		return h.Status == "CONFIRMED" && h.UpdatedByRole == "SYSTEM"
	})).Return(nil).Once()

	res, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, gateway.OutcomeSuccess, res.Outcome)
	assert.Equal(t, model.OrderStatusConfirmed, res.OrderStatus)
	assert.Equal(t, model.PaymentStatusCompleted, res.PaymentStatus)

	histories.AssertExpectations(t)
	if assert.Len(t, n.Events, 1) {
		assert.Equal(t, "COMPLETED", n.Events[0].PaymentStatus)
	}
}

// 同じSUCCESSを二度取り込んでも状態は変わらない
func TestVerify_Success_Idempotent(t *testing.T) {
	orders, histories, gw, n, uc := newPaymentFixture(fastRetry())

	o := pendingGatewayOrder()
	o.OrderStatus = model.OrderStatusConfirmed
	o.PaymentStatus = model.PaymentStatusCompleted
	o.GatewayTransactionRef = "txn-123"

	orders.On("FindByID", mock.Anything, int64(3)).Return(o, nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome:        gateway.OutcomeSuccess,
		TransactionRef: "txn-123",
	}, nil)

	res, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, res.PaymentStatus)
	assert.Equal(t, model.OrderStatusConfirmed, res.OrderStatus)

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	histories.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Empty(t, n.Events)
}

// キャンセルと入金が競合したら、確定へは進めず返金追跡を開始する
func TestVerify_Success_AfterCancel_RoutesToRefund(t *testing.T) {
	orders, histories, gw, _, uc := newPaymentFixture(fastRetry())

	o := pendingGatewayOrder()
	o.OrderStatus = model.OrderStatusCanceled
	o.PaymentStatus = model.PaymentStatusCanceled

	orders.On("FindByID", mock.Anything, int64(3)).Return(o, nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome:        gateway.OutcomeSuccess,
		TransactionRef: "txn-999",
	}, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(saved model.Order) bool {
		return saved.OrderStatus == model.OrderStatusCanceled &&
			saved.PaymentStatus == model.PaymentStatusCompleted &&
			saved.RefundStatus == model.RefundStatusPending &&
			saved.RefundAmount == int64(8000)
	}), int64(1)).Return(nil)
	histories.On("Append", mock.Anything, mock.MatchedBy(func(h model.StatusHistory) bool {
		return h.Status == model.HistoryPaymentCompleted
	})).Return(nil)

	res, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, res.OrderStatus)
	assert.Equal(t, model.RefundStatusPending, res.RefundStatus)
	orders.AssertExpectations(t)
}

func TestVerify_Failed_MarksFailure(t *testing.T) {
	orders, _, gw, n, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome:   gateway.OutcomeFailed,
		RawReason: "card declined",
	}, nil)
	orders.On("Save", mock.Anything, mock.MatchedBy(func(saved model.Order) bool {
		return saved.PaymentStatus == model.PaymentStatusFailed &&
			saved.FailureReason == "card declined" &&
			saved.OrderStatus == model.OrderStatusPending
	}), int64(1)).Return(nil)

	res, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, res.PaymentStatus)

	if assert.Len(t, n.Events, 1) {
		assert.Equal(t, "FAILED", n.Events[0].PaymentStatus)
	}
}

// 回収済みをFAILEDで上書きしない
func TestVerify_Failed_DoesNotOverwriteCompleted(t *testing.T) {
	orders, _, gw, n, uc := newPaymentFixture(fastRetry())

	o := pendingGatewayOrder()
	o.PaymentStatus = model.PaymentStatusCompleted

	orders.On("FindByID", mock.Anything, int64(3)).Return(o, nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome: gateway.OutcomeFailed,
	}, nil)

	res, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, res.PaymentStatus)

	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, n.Events)
}

func TestVerify_NoGatewaySession(t *testing.T) {
	orders, _, gw, _, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(model.Order{
		ID:            3,
		PaymentMethod: model.PaymentMethodCOD,
	}, nil)

	_, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assertErrContains(t, err, "no gateway session")
	gw.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
}

func TestVerify_GatewayUnavailable(t *testing.T) {
	orders, _, gw, _, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{}, gateway.ErrUnavailable)

	_, err := uc.VerifyGatewayPayment(context.Background(), 3)
	assertErrContains(t, err, "unavailable")
}

// =====================
// VerifyGatewayPaymentWithRetry
// =====================

func TestVerifyWithRetry_PendingThenSuccess(t *testing.T) {
	orders, histories, gw, _, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome: gateway.OutcomePending,
	}, nil).Twice()
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome:        gateway.OutcomeSuccess,
		TransactionRef: "txn-42",
	}, nil).Once()
	orders.On("Save", mock.Anything, mock.Anything, int64(1)).Return(nil)
	histories.On("Append", mock.Anything, mock.Anything).Return(nil)

	res, err := uc.VerifyGatewayPaymentWithRetry(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, gateway.OutcomeSuccess, res.Outcome)
	gw.AssertNumberOfCalls(t, "GetStatus", 3)
}

func TestVerifyWithRetry_TimesOut(t *testing.T) {
	orders, _, gw, _, uc := newPaymentFixture(fastRetry())

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome: gateway.OutcomePending,
	}, nil)

	_, err := uc.VerifyGatewayPaymentWithRetry(context.Background(), 3)
	assertErrContains(t, err, "timed out")

	//MaxAttempts回で打ち切り
	gw.AssertNumberOfCalls(t, "GetStatus", 3)
}

func TestVerifyWithRetry_StopsOnContextCancel(t *testing.T) {
	orders, _, gw, _, uc := newPaymentFixture(usecase.RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
	})

	orders.On("FindByID", mock.Anything, int64(3)).Return(pendingGatewayOrder(), nil)
	gw.On("GetStatus", mock.Anything, "gw-ord-3").Return(gateway.Status{
		Outcome: gateway.OutcomePending,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.VerifyGatewayPaymentWithRetry(ctx, 3)
	assertErrContains(t, err, "canceled")
	gw.AssertNumberOfCalls(t, "GetStatus", 1)
}
