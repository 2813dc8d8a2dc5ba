package voucherclaim

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

const Ability = capability.VoucherClaim

// Caveat are the parameters of a voucher/claim invocation. It asks the
// service to issue a redemption voucher for a product tier to an identity.
// The voucher is not returned in the receipt - it is delivered out-of-band
// after the identity has been verified.
type Caveat struct {
	// Identity to issue the voucher to, e.g. "mailto:user@example.com".
	Identity string
	// Product is the product tier the voucher redeems, e.g. "product:free".
	Product string
	// Service is the DID of the service the voucher will be redeemed with.
	Service string
}

var _ ucan.CaveatBuilder = (*Caveat)(nil)

func (c Caveat) ToIPLD() (datamodel.Node, error) {
	return ipld.WrapWithRecovery(&c, nil)
}

func NewCapability(space did.DID, nb Caveat) ucan.Capability[Caveat] {
	return ucan.NewCapability(Ability.String(), space.String(), nb)
}
