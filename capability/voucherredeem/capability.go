package voucherredeem

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

const Ability = capability.VoucherRedeem

// Caveat are the parameters of a voucher/redeem invocation. Redeeming a
// voucher registers the account (a space DID) with the service for the
// product tier the voucher was issued for.
type Caveat struct {
	// Product is the product tier the voucher redeems, e.g. "product:free".
	Product string
	// Identity the voucher was issued to, e.g. "mailto:user@example.com".
	Identity string
	// Account is the DID of the space being registered.
	Account string
}

var _ ucan.CaveatBuilder = (*Caveat)(nil)

func (c Caveat) ToIPLD() (datamodel.Node, error) {
	return ipld.WrapWithRecovery(&c, nil)
}

// NewCapability creates a voucher/redeem capability. The resource is the
// service DID that issued the voucher.
func NewCapability(service did.DID, nb Caveat) ucan.Capability[Caveat] {
	return ucan.NewCapability(Ability.String(), service.String(), nb)
}
