package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/models"
)

func TestWorkOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	order := &models.WorkOrder{Status: models.WorkOrderStatusOpen}
	wfsm := NewWorkOrderFSM(order)

	require.NoError(t, wfsm.Assign(ctx))
	assert.Equal(t, models.WorkOrderStatusAssigned, order.Status)

	require.NoError(t, wfsm.Start(ctx))
	assert.Equal(t, models.WorkOrderStatusInProgress, order.Status)

	require.NoError(t, wfsm.Complete(ctx))
	assert.Equal(t, models.WorkOrderStatusCompleted, order.Status)

	require.NoError(t, wfsm.Close(ctx))
	assert.Equal(t, models.WorkOrderStatusClosed, order.Status)
}

func TestWorkOrderInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	order := &models.WorkOrder{Status: models.WorkOrderStatusOpen}
	wfsm := NewWorkOrderFSM(order)
	assert.Error(t, wfsm.Start(ctx))
	assert.Error(t, wfsm.Complete(ctx))
	assert.Error(t, wfsm.Close(ctx))
	assert.Equal(t, models.WorkOrderStatusOpen, order.Status)

	order = &models.WorkOrder{Status: models.WorkOrderStatusClosed}
	wfsm = NewWorkOrderFSM(order)
	assert.Error(t, wfsm.Assign(ctx))
	assert.Equal(t, models.WorkOrderStatusClosed, order.Status)
}

func TestWorkOrderCan(t *testing.T) {
	order := &models.WorkOrder{Status: models.WorkOrderStatusAssigned}
	wfsm := NewWorkOrderFSM(order)

	assert.True(t, wfsm.Can("start"))
	assert.False(t, wfsm.Can("assign"))
	assert.False(t, wfsm.Can("close"))
}

func TestPaymentLifecycle(t *testing.T) {
	ctx := context.Background()

	payment := &models.Payment{Status: models.PaymentStatusPending}
	pfsm := NewPaymentFSM(payment)
	require.NoError(t, pfsm.Settle(ctx))
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)

	// Settled payments cannot settle twice or fail
	assert.Error(t, pfsm.Settle(ctx))

	payment = &models.Payment{Status: models.PaymentStatusPending}
	pfsm = NewPaymentFSM(payment)
	require.NoError(t, pfsm.Fail(ctx))
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)

	payment = &models.Payment{Status: models.PaymentStatusSucceeded}
	pfsm = NewPaymentFSM(payment)
	require.NoError(t, pfsm.Cancel(ctx))
	assert.Equal(t, models.PaymentStatusCancelled, payment.Status)

	payment = &models.Payment{Status: models.PaymentStatusFailed}
	pfsm = NewPaymentFSM(payment)
	assert.Error(t, pfsm.Cancel(ctx))
}
