// Package services – PaymentValidator
//
// This file decides, at the moment of execution, whether a configured payment
// method can be charged. The classification is a closed four-way switch over
// the method type; the positive branches are deliberately stubs. A production
// deployment swaps the stub for an implementation that performs real balance
// and processor calls while keeping the same contract.
package services

import "github.com/tbourn/go-recurring-backend/internal/domain"

// PaymentValidator decides whether a recurring order's configured payment
// method is currently usable. A nil return means the method can be charged;
// otherwise the returned error describes the failure reason and is recorded
// verbatim in the execution log.
type PaymentValidator interface {
	Validate(m domain.PaymentMethod) error
}

// StubPaymentValidator is the default PaymentValidator. It accepts every
// well-formed method and rejects only missing or unrecognized types:
//
//   - wallet: accepted; balance sufficiency is the host's concern (the
//     due-orders provider is expected to pre-filter for eligibility).
//   - card: accepted; charging is delegated to a real payment processor in a
//     full deployment.
//   - cash: always accepted.
//   - missing type: ErrNoPaymentMethod.
//   - anything else: ErrUnsupportedPaymentMethod.
type StubPaymentValidator struct{}

// Validate implements PaymentValidator.
func (StubPaymentValidator) Validate(m domain.PaymentMethod) error {
	switch m.Type {
	case domain.PaymentWallet:
		return nil
	case domain.PaymentCard:
		return nil
	case domain.PaymentCash:
		return nil
	case "":
		return ErrNoPaymentMethod
	default:
		return ErrUnsupportedPaymentMethod
	}
}
