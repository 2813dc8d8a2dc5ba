package storeadd

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

const Ability = capability.StoreAdd

// Caveat are the parameters of a store/add invocation.
type Caveat struct {
	// Link is the CID of the CAR shard to store.
	Link ipld.Link
	// Size of the CAR shard in bytes.
	Size uint64
	// Origin is an optional link to a related CAR shard, e.g. the previous
	// shard in a multi-shard upload.
	Origin ipld.Link
}

var _ ucan.CaveatBuilder = (*Caveat)(nil)

func (c Caveat) ToIPLD() (datamodel.Node, error) {
	return ipld.WrapWithRecovery(&c, nil)
}

func NewCapability(space did.DID, nb Caveat) ucan.Capability[Caveat] {
	return ucan.NewCapability(Ability.String(), space.String(), nb)
}
