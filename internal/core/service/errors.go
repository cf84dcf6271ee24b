package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateItem     = errors.New("inventory item already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrNotVendorRequest  = errors.New("request is not open to vendors")
	ErrForbidden         = errors.New("role may not manage inventory")
)
