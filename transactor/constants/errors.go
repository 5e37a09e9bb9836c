package constant

import "errors"

var (
	// ErrInsufficientFunds maps to transaction error code 0018.
	ErrInsufficientFunds = errors.New("0018")
	// ErrNoTransaction maps to transaction error code 0101.
	ErrNoTransaction = errors.New("0101")
	// ErrAlreadyDisputed maps to transaction error code 0102.
	ErrAlreadyDisputed = errors.New("0102")
	// ErrNotDisputed maps to transaction error code 0103.
	ErrNotDisputed = errors.New("0103")
	// ErrAccountLocked maps to transaction error code 0104.
	ErrAccountLocked = errors.New("0104")
	// ErrMalformedOperation maps to transaction error code 1001.
	ErrMalformedOperation = errors.New("1001")
)
