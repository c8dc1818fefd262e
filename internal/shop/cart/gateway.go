// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taibuivan/shopfront/internal/platform/sec"
)

// ErrDeclined is returned by a gateway that refuses a charge.
var ErrDeclined = errors.New("payment declined")

// PaymentGateway tokenises cards and charges them.
type PaymentGateway interface {
	// Tokenize exchanges a card number for an opaque reference.
	Tokenize(context context.Context, cardNumber string) (ref, last4 string, err error)
	// Charge debits amountCents from the card behind ref.
	Charge(context context.Context, ref string, amountCents int64) (chargeRef string, err error)
}

// declineSuffix marks test cards the mock gateway refuses.
const declineSuffix = "0002"

// MockGateway accepts every card except numbers ending in 0002.
// Card numbers never leave Tokenize; only the last four digits survive in the reference.
type MockGateway struct{}

// Tokenize implements [PaymentGateway].
func (MockGateway) Tokenize(_ context.Context, cardNumber string) (string, string, error) {
	if len(cardNumber) < 4 {
		return "", "", fmt.Errorf("mock_gateway: card number too short")
	}
	last4 := cardNumber[len(cardNumber)-4:]

	nonce, err := sec.GenerateSecureToken(12)
	if err != nil {
		return "", "", fmt.Errorf("mock_gateway: %w", err)
	}
	return "mock_" + last4 + "_" + nonce, last4, nil
}

// Charge implements [PaymentGateway].
func (MockGateway) Charge(_ context.Context, ref string, amountCents int64) (string, error) {
	if !strings.HasPrefix(ref, "mock_") {
		return "", fmt.Errorf("mock_gateway: unknown reference")
	}
	if strings.HasPrefix(ref, "mock_"+declineSuffix+"_") {
		return "", ErrDeclined
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("mock_gateway: invalid amount %d", amountCents)
	}

	nonce, err := sec.GenerateSecureToken(12)
	if err != nil {
		return "", fmt.Errorf("mock_gateway: %w", err)
	}
	return "ch_" + nonce, nil
}
