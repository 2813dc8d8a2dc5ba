package voucherclaim

import (
	_ "embed"
)

//go:embed result.ipldsch
var ResultSchema []byte

// Success carries no data. The redemption voucher arrives out-of-band once
// the identity in the claim has been verified.
type Success struct{}

type Failure struct {
	Name    *string
	Message string
	Stack   *string
}
