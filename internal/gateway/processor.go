package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ChargeResult is what the card processor returns for a charge attempt
type ChargeResult struct {
	Status            string
	ProviderReference string
}

// Charge outcome statuses as reported by the processor
const (
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusFailed    = "failed"
	ChargeStatusPending   = "pending"
)

// PaymentProcessor charges cards through an external provider. The real
// settlement arrives later on the webhook endpoint keyed by the
// provider reference.
type PaymentProcessor interface {
	Charge(ctx context.Context, cardToken string, amount float64, currency string) (*ChargeResult, error)
}

// SandboxProcessor is the development processor. It accepts every token
// except those prefixed with "tok_fail", which it declines.
type SandboxProcessor struct{}

// NewSandboxProcessor creates a sandbox processor
func NewSandboxProcessor() *SandboxProcessor {
	return &SandboxProcessor{}
}

// Charge simulates a card charge
func (p *SandboxProcessor) Charge(ctx context.Context, cardToken string, amount float64, currency string) (*ChargeResult, error) {
	ref := "sb_" + uuid.NewString()

	if strings.HasPrefix(cardToken, "tok_fail") {
		return &ChargeResult{Status: ChargeStatusFailed, ProviderReference: ref}, nil
	}

	return &ChargeResult{Status: ChargeStatusPending, ProviderReference: ref}, nil
}
