package uploadadd

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

const Ability = capability.UploadAdd

// Caveat are the parameters of an upload/add invocation.
type Caveat struct {
	// Root is the CID of the DAG root being registered as an upload.
	Root ipld.Link
	// Shards are the CIDs of the CAR shards the DAG is stored in.
	Shards []ipld.Link
}

var _ ucan.CaveatBuilder = (*Caveat)(nil)

func (c Caveat) ToIPLD() (datamodel.Node, error) {
	return ipld.WrapWithRecovery(&c, nil)
}

func NewCapability(space did.DID, nb Caveat) ucan.Capability[Caveat] {
	return ucan.NewCapability(Ability.String(), space.String(), nb)
}
