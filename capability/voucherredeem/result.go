package voucherredeem

import (
	_ "embed"
)

//go:embed result.ipldsch
var ResultSchema []byte

type Success struct{}

type Failure struct {
	Name    *string
	Message string
	Stack   *string
}
