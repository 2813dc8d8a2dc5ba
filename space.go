package w3up

import (
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"

	"github.com/storacha/go-w3up-client/agent"
)

// Space is a read-only view of a storage namespace known to the agent.
type Space struct {
	did        did.DID
	name       string
	registered bool
}

// DID is the decentralized identifier of the space.
func (s Space) DID() did.DID {
	return s.did
}

// Name is the human readable label the space was created or imported with.
// It may be empty.
func (s Space) Name() string {
	return s.name
}

// Registered reports whether the space has been registered with the
// service. Uploads to an unregistered space are rejected remotely.
func (s Space) Registered() bool {
	return s.registered
}

func newSpace(info agent.SpaceInfo) Space {
	return Space{did: info.DID, name: info.Meta.Name, registered: info.Meta.Registered}
}

// CurrentSpace returns the space operations target by default. It returns
// ErrNoCurrentSpace when none is selected.
func (c *Client) CurrentSpace() (Space, error) {
	id, ok := c.agent.CurrentSpace()
	if !ok {
		return Space{}, ErrNoCurrentSpace
	}
	info, err := c.agent.Space(id)
	if err != nil {
		return Space{}, err
	}
	return newSpace(info), nil
}

// SetCurrentSpace selects the space subsequent operations target. The DID
// must name a known space - ErrSpaceNotFound is returned otherwise and the
// selection is unchanged.
func (c *Client) SetCurrentSpace(id did.DID) error {
	return c.agent.SetCurrentSpace(id)
}

// Spaces returns all spaces the agent knows about, created and imported
// alike.
func (c *Client) Spaces() []Space {
	var spaces []Space
	for _, info := range c.agent.Spaces() {
		spaces = append(spaces, newSpace(info))
	}
	return spaces
}

// CreateSpace generates a new space keypair, self-delegates full authority
// over it to the agent and records both. The new space is not made current
// and is not registered with the service - see SetCurrentSpace and
// RegisterSpace.
func (c *Client) CreateSpace(name string) (Space, error) {
	info, err := c.agent.CreateSpace(name)
	if err != nil {
		return Space{}, err
	}
	log.Debugw("created space", "space", info.DID, "name", name)
	return newSpace(info), nil
}

// AddSpace imports a space from a delegation addressed to this agent,
// recording the delegation as a proof. The space DID is taken from the
// delegation's capabilities. ErrAudienceMismatch is returned when the
// delegation is addressed to a different principal.
func (c *Client) AddSpace(proof delegation.Delegation) (Space, error) {
	info, err := c.agent.ImportSpace(proof)
	if err != nil {
		return Space{}, err
	}
	return newSpace(info), nil
}
