package uploadlist

import (
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

const Ability = capability.UploadList

// Caveat are the parameters of an upload/list invocation.
type Caveat struct {
	// Cursor into the pagination, from a previous response.
	Cursor string
	// Size is the maximum number of items per page.
	Size int64
	// Pre requests the page of results preceding the cursor.
	Pre bool
}

var _ ucan.CaveatBuilder = (*Caveat)(nil)

func (c Caveat) ToIPLD() (datamodel.Node, error) {
	return ipld.WrapWithRecovery(&c, nil)
}

func NewCapability(space did.DID, nb Caveat) ucan.Capability[Caveat] {
	return ucan.NewCapability(Ability.String(), space.String(), nb)
}
