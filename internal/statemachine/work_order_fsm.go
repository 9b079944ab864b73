package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/habitek/habitek-api/internal/models"
)

// WorkOrderFSM wraps a work order with its state machine
type WorkOrderFSM struct {
	order *models.WorkOrder
	fsm   *fsm.FSM
}

// NewWorkOrderFSM creates a new work order state machine
func NewWorkOrderFSM(order *models.WorkOrder) *WorkOrderFSM {
	wfsm := &WorkOrderFSM{
		order: order,
	}

	wfsm.fsm = fsm.NewFSM(
		order.Status,
		fsm.Events{
			// open → assigned (vendor picked)
			{Name: "assign", Src: []string{models.WorkOrderStatusOpen}, Dst: models.WorkOrderStatusAssigned},

			// assigned → in_progress
			{Name: "start", Src: []string{models.WorkOrderStatusAssigned}, Dst: models.WorkOrderStatusInProgress},

			// in_progress → completed
			{Name: "complete", Src: []string{models.WorkOrderStatusInProgress}, Dst: models.WorkOrderStatusCompleted},

			// completed → closed (cost recorded, invoice filed)
			{Name: "close", Src: []string{models.WorkOrderStatusCompleted}, Dst: models.WorkOrderStatusClosed},
		},
		fsm.Callbacks{},
	)

	return wfsm
}

// Assign transitions the work order to assigned state
func (w *WorkOrderFSM) Assign(ctx context.Context) error {
	if !w.order.MayAssign() {
		return fmt.Errorf("work order cannot be assigned in current state: %s", w.order.Status)
	}

	if err := w.fsm.Event(ctx, "assign"); err != nil {
		return fmt.Errorf("failed to assign work order: %w", err)
	}

	w.order.Status = w.fsm.Current()
	return nil
}

// Start transitions the work order to in_progress state
func (w *WorkOrderFSM) Start(ctx context.Context) error {
	if !w.order.MayStart() {
		return fmt.Errorf("work order cannot be started in current state: %s", w.order.Status)
	}

	if err := w.fsm.Event(ctx, "start"); err != nil {
		return fmt.Errorf("failed to start work order: %w", err)
	}

	w.order.Status = w.fsm.Current()
	return nil
}

// Complete transitions the work order to completed state
func (w *WorkOrderFSM) Complete(ctx context.Context) error {
	if !w.order.MayComplete() {
		return fmt.Errorf("work order cannot be completed in current state: %s", w.order.Status)
	}

	if err := w.fsm.Event(ctx, "complete"); err != nil {
		return fmt.Errorf("failed to complete work order: %w", err)
	}

	w.order.Status = w.fsm.Current()
	return nil
}

// Close transitions the work order to closed state
func (w *WorkOrderFSM) Close(ctx context.Context) error {
	if !w.order.MayClose() {
		return fmt.Errorf("work order cannot be closed in current state: %s", w.order.Status)
	}

	if err := w.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close work order: %w", err)
	}

	w.order.Status = w.fsm.Current()
	return nil
}

// Current returns the current state
func (w *WorkOrderFSM) Current() string {
	return w.fsm.Current()
}

// Can checks if a transition is possible
func (w *WorkOrderFSM) Can(event string) bool {
	return w.fsm.Can(event)
}
