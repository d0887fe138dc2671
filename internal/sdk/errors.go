package sdk

import (
	"errors"
	"fmt"
)

var (
	ErrParse                 = errors.New("parse error")
	ErrDivisionByZero        = errors.New("division by zero")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrCurrencyMismatch      = fmt.Errorf("currency mismatch: %w", ErrTypeMismatch)
	ErrIncompatiblePrice     = fmt.Errorf("incompatible price: %w", ErrTypeMismatch)
	ErrInvalidRoute          = errors.New("invalid route")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrTickOutOfRange        = errors.New("tick out of range")
)
