package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/habitek/habitek-api/internal/models"
)

// PaymentFSM wraps a payment with its state machine
type PaymentFSM struct {
	payment *models.Payment
	fsm     *fsm.FSM
}

// NewPaymentFSM creates a new payment state machine
func NewPaymentFSM(payment *models.Payment) *PaymentFSM {
	pfsm := &PaymentFSM{
		payment: payment,
	}

	pfsm.fsm = fsm.NewFSM(
		payment.Status,
		fsm.Events{
			// pending → succeeded (processor settled or manual entry confirmed)
			{Name: "settle", Src: []string{models.PaymentStatusPending}, Dst: models.PaymentStatusSucceeded},

			// pending → failed (processor declined)
			{Name: "fail", Src: []string{models.PaymentStatusPending}, Dst: models.PaymentStatusFailed},

			// pending/succeeded → cancelled
			{Name: "cancel", Src: []string{models.PaymentStatusPending, models.PaymentStatusSucceeded}, Dst: models.PaymentStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return pfsm
}

// Settle transitions payment to succeeded state
func (p *PaymentFSM) Settle(ctx context.Context) error {
	if !p.payment.MaySettle() {
		return fmt.Errorf("payment cannot be settled in current state: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "settle"); err != nil {
		return fmt.Errorf("failed to settle payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Fail transitions payment to failed state
func (p *PaymentFSM) Fail(ctx context.Context) error {
	if err := p.fsm.Event(ctx, "fail"); err != nil {
		return fmt.Errorf("failed to mark payment as failed: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Cancel transitions payment to cancelled state
func (p *PaymentFSM) Cancel(ctx context.Context) error {
	if !p.payment.MayCancel() {
		return fmt.Errorf("payment cannot be cancelled in current state: %s", p.payment.Status)
	}

	if err := p.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel payment: %w", err)
	}

	p.payment.Status = p.fsm.Current()
	return nil
}

// Current returns the current state
func (p *PaymentFSM) Current() string {
	return p.fsm.Current()
}

// Can checks if a transition is possible
func (p *PaymentFSM) Can(event string) bool {
	return p.fsm.Can(event)
}
