package core

import (
	"fmt"
	"math/bits"

	"estateledger/pkg/domain"
)

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%d + %d: %w", a, b, domain.ErrAmountOverflow)
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%d x %d: %w", a, b, domain.ErrAmountOverflow)
	}
	return lo, nil
}
