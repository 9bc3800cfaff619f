package service

import (
	"context"
	"fmt"

	"markline/backend/internal/state"
)

// SSCC layout: extension digit + company prefix + serial reference,
// 17 digits total, closed by the GS1 mod-10 check digit.
const (
	ssccExtension     = "0"
	ssccCompanyPrefix = "461000123" // 9 digits, leaves a 7-digit serial
	ssccSerialSpan    = 10_000_000
)

// SSCCGenerator mints transport codes for the marking pipeline. The
// scan processor never calls it; operators scan SSCCs produced ahead of
// time.
type SSCCGenerator interface {
	Next(ctx context.Context, orderID uint) (string, error)
}

type ssccService struct {
	store state.Store
}

// NewSSCCGenerator creates the generator over the shared session store
// counter.
func NewSSCCGenerator(store state.Store) SSCCGenerator {
	return &ssccService{store: store}
}

func (s *ssccService) Next(ctx context.Context, orderID uint) (string, error) {
	serial, err := s.store.NextSSCCSerial(ctx, orderID)
	if err != nil {
		return "", err
	}
	body := fmt.Sprintf("%s%s%07d", ssccExtension, ssccCompanyPrefix, serial%ssccSerialSpan)
	return body + gs1CheckDigit(body), nil
}

// gs1CheckDigit computes the GS1 mod-10 check digit: weights 3 and 1
// alternate starting with 3 at the rightmost body digit.
func gs1CheckDigit(digits string) string {
	sum := 0
	weight := 3
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight = 4 - weight
	}
	return string(rune('0' + (10-sum%10)%10))
}
