package services

import (
	"errors"
	"testing"

	"github.com/tbourn/go-recurring-backend/internal/domain"
)

func TestStubPaymentValidator_AcceptedTypes(t *testing.T) {
	v := StubPaymentValidator{}

	cases := []domain.PaymentMethod{
		{Type: domain.PaymentWallet, WalletID: "w1"},
		{Type: domain.PaymentWallet}, // wallet without id is still the host's concern
		{Type: domain.PaymentCard, CardToken: "tok_123"},
		{Type: domain.PaymentCard},
		{Type: domain.PaymentCash},
	}
	for _, m := range cases {
		if err := v.Validate(m); err != nil {
			t.Fatalf("Validate(%+v) = %v, want nil", m, err)
		}
	}
}

func TestStubPaymentValidator_MissingType(t *testing.T) {
	v := StubPaymentValidator{}
	if err := v.Validate(domain.PaymentMethod{}); !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}
}

func TestStubPaymentValidator_UnknownType(t *testing.T) {
	v := StubPaymentValidator{}
	for _, typ := range []string{"crypto", "WALLET", "check", " cash"} {
		err := v.Validate(domain.PaymentMethod{Type: typ})
		if !errors.Is(err, ErrUnsupportedPaymentMethod) {
			t.Fatalf("Validate(type=%q) = %v, want ErrUnsupportedPaymentMethod", typ, err)
		}
	}
}
