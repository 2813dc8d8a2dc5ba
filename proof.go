package w3up

import (
	udelegation "github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"

	"github.com/storacha/go-w3up-client/agent"
	"github.com/storacha/go-w3up-client/capability"
)

// Delegation is a delegation this agent has issued, together with the
// metadata it was recorded with.
type Delegation struct {
	udelegation.Delegation
	Meta agent.DelegationMeta
}

// Proofs returns delegations held by the agent with the agent as audience.
// With no arguments every proof is returned; otherwise only proofs granting
// at least one of the given capabilities, where a granted "*" matches any
// capability and "ns/*" matches any capability in that namespace.
func (c *Client) Proofs(abilities ...capability.Ability) []udelegation.Delegation {
	return c.agent.Proofs(abilities...)
}

// AddProof stores a delegation with the agent as audience for use as proof
// in future invocations. ErrAudienceMismatch is returned when the
// delegation is addressed to a different principal.
func (c *Client) AddProof(proof udelegation.Delegation) error {
	return c.agent.AddProof(proof)
}

// Delegations returns delegations this agent has issued, optionally
// filtered by capability the same way Proofs filters.
func (c *Client) Delegations(abilities ...capability.Ability) []Delegation {
	var dels []Delegation
	for _, d := range c.agent.Delegations(abilities...) {
		dels = append(dels, Delegation{Delegation: d.Delegation, Meta: d.Meta})
	}
	return dels
}

// DelegationOption configures a delegation issued by CreateDelegation.
type DelegationOption func(cfg *delegationConfig) error

type delegationConfig struct {
	meta     agent.DelegationMeta
	resource did.DID
	options  []udelegation.Option
}

// WithDelegationName attaches a human readable label to the issued
// delegation.
func WithDelegationName(name string) DelegationOption {
	return func(cfg *delegationConfig) error {
		cfg.meta.Name = name
		return nil
	}
}

// WithDelegationType records what kind of principal the delegation was
// issued to, e.g. "device" or "app".
func WithDelegationType(typ string) DelegationOption {
	return func(cfg *delegationConfig) error {
		cfg.meta.Type = typ
		return nil
	}
}

// WithResource sets the resource the delegation covers, overriding the
// default of the current space.
func WithResource(resource did.DID) DelegationOption {
	return func(cfg *delegationConfig) error {
		cfg.resource = resource
		return nil
	}
}

// WithDelegationOptions passes options through to the underlying
// delegation, e.g. an expiration.
func WithDelegationOptions(options ...udelegation.Option) DelegationOption {
	return func(cfg *delegationConfig) error {
		cfg.options = append(cfg.options, options...)
		return nil
	}
}

// CreateDelegation issues a delegation of the given capabilities on the
// current space (or the WithResource override) to another principal,
// chaining in the agent's own proofs so the recipient can trace authority
// back to the space. The issued delegation is recorded and shows up in
// Delegations.
func (c *Client) CreateDelegation(audience did.DID, abilities []capability.Ability, options ...DelegationOption) (Delegation, error) {
	cfg := delegationConfig{meta: agent.DelegationMeta{Name: "agent", Type: "device"}}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return Delegation{}, err
		}
	}

	if cfg.resource == did.Undef {
		space, ok := c.agent.CurrentSpace()
		if !ok {
			return Delegation{}, ErrNoCurrentSpace
		}
		cfg.resource = space
	}

	issued, err := c.agent.Delegate(audience, cfg.resource, abilities, cfg.meta, cfg.options...)
	if err != nil {
		return Delegation{}, err
	}
	return Delegation{Delegation: issued.Delegation, Meta: issued.Meta}, nil
}
