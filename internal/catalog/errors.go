package catalog

import "errors"

var (
	// ErrNoPagination means page 1 had no integer pagination item, the
	// layout of the shop has most likely changed.
	ErrNoPagination = errors.New("no parseable pagination item")
	// ErrMissingField means a listing item lacks a required element.
	ErrMissingField = errors.New("missing required field")
	// ErrPriceFormat means the displayed price could not be split into
	// currency and value.
	ErrPriceFormat = errors.New("malformed price")
)
