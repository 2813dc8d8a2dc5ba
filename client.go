// Package w3up is a high level client for the w3up content-addressed upload
// service. It composes an agent (identity, space and proof registries),
// per-namespace capability invokers and an upload pipeline behind a simple,
// capability-scoped API: upload files, directories and CARs, manage spaces,
// and manage the delegations that authorize it all.
//
// A Client adds no locking of its own. The agent guards its registries, but
// operations like SetCurrentSpace and CurrentSpace that race from separate
// goroutines interleave last-write-wins. Calls that perform network I/O may
// be in flight concurrently.
package w3up

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	logging "github.com/ipfs/go-log/v2"
	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/principal"

	"github.com/storacha/go-w3up-client/access"
	"github.com/storacha/go-w3up-client/agent"
	"github.com/storacha/go-w3up-client/capability"
	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/capability/voucherclaim"
	"github.com/storacha/go-w3up-client/capability/voucherredeem"
	"github.com/storacha/go-w3up-client/client"
)

var log = logging.Logger("w3up")

var (
	// ErrNoCurrentSpace is returned by operations that need a space when none
	// is selected.
	ErrNoCurrentSpace = errors.New("no current space selected")
	// ErrSpaceNotFound is returned by SetCurrentSpace for a DID that does not
	// name a known space.
	ErrSpaceNotFound = agent.ErrSpaceNotFound
	// ErrAudienceMismatch is returned by AddSpace and AddProof for a
	// delegation not addressed to this agent.
	ErrAudienceMismatch = agent.ErrAudienceMismatch
)

// Agent owns the client's identity, space registry, proof store and
// current-space selection. *agent.Agent is the stock implementation.
type Agent interface {
	DID() did.DID
	Issuer() principal.Signer
	CurrentSpace() (did.DID, bool)
	SetCurrentSpace(id did.DID) error
	Spaces() []agent.SpaceInfo
	Space(id did.DID) (agent.SpaceInfo, error)
	CreateSpace(name string) (agent.SpaceInfo, error)
	ImportSpace(proof delegation.Delegation) (agent.SpaceInfo, error)
	MarkSpaceRegistered(id did.DID) error
	Proofs(abilities ...capability.Ability) []delegation.Delegation
	AddProof(proof delegation.Delegation) error
	Delegations(abilities ...capability.Ability) []agent.IssuedDelegation
	Delegate(audience did.DID, resource did.DID, abilities []capability.Ability, meta agent.DelegationMeta, options ...delegation.Option) (agent.IssuedDelegation, error)
}

// StoreService invokes capabilities in the store/ namespace.
type StoreService interface {
	StoreAdd(ctx context.Context, cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error)
}

// UploadService invokes capabilities in the upload/ namespace.
type UploadService interface {
	UploadAdd(ctx context.Context, cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error)
	UploadList(ctx context.Context, cfg client.InvocationConfig, nb uploadlist.Caveat) (*uploadlist.Success, error)
}

// VoucherService invokes capabilities in the voucher/ namespace.
type VoucherService interface {
	VoucherClaim(ctx context.Context, cfg client.InvocationConfig, nb voucherclaim.Caveat) (*voucherclaim.Success, error)
	VoucherRedeem(ctx context.Context, cfg client.InvocationConfig, nb voucherredeem.Caveat) (*voucherredeem.Success, error)
}

// Service is the set of remote capability invokers the client drives.
// *client.Service is the stock implementation.
type Service interface {
	StoreService
	UploadService
	VoucherService
}

// AccessChannel delivers delegations the service pushes out-of-band.
// *access.Channel is the stock implementation.
type AccessChannel interface {
	AwaitClaim(ctx context.Context, audience did.DID) (delegation.Delegation, error)
}

// Option configures a client.
type Option func(c *Client) error

// WithConnection configures the connection invocations are executed on,
// replacing the default production service connection.
func WithConnection(conn uclient.Connection) Option {
	return func(c *Client) error {
		c.conn = conn
		return nil
	}
}

// WithService configures the capability invokers. Mostly useful for
// testing.
func WithService(service Service) Option {
	return func(c *Client) error {
		c.service = service
		return nil
	}
}

// WithAccessChannel configures the channel RegisterSpace waits on for the
// voucher redemption delegation.
func WithAccessChannel(channel AccessChannel) Option {
	return func(c *Client) error {
		c.access = channel
		return nil
	}
}

// Client is the single entry point an application holds. Behind every
// method it derives an ephemeral invocation configuration - issuer,
// authorizing proofs for the requested capability set and target connection
// - and forwards to a capability invoker or the upload pipeline. Nothing is
// cached between calls.
type Client struct {
	agent   Agent
	service Service
	access  AccessChannel
	conn    uclient.Connection
}

// NewClient creates a client around the given agent. Without options it
// talks to the production service.
func NewClient(agent Agent, options ...Option) (*Client, error) {
	c := &Client{agent: agent}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.service == nil {
		c.service = client.NewService(c.conn)
	}
	if c.access == nil {
		u, err := url.Parse(access.DefaultURL)
		if err != nil {
			return nil, fmt.Errorf("parsing access URL: %w", err)
		}
		c.access = access.NewChannel(u)
	}

	return c, nil
}

// Agent returns the local identity principal.
func (c *Client) Agent() principal.Signer {
	return c.agent.Issuer()
}

// invocationConfig derives the ephemeral configuration for an invocation of
// the given capability set: the agent as issuer, whatever proofs the agent
// holds for those capabilities, the current space as resource and the
// configured connection. Proof sufficiency is not checked locally - an
// insufficient set is rejected by the service.
func (c *Client) invocationConfig(abilities ...capability.Ability) (client.InvocationConfig, error) {
	for _, ability := range abilities {
		if !ability.Valid() {
			return client.InvocationConfig{}, fmt.Errorf("unknown capability: %s", ability)
		}
	}

	space, ok := c.agent.CurrentSpace()
	if !ok {
		return client.InvocationConfig{}, ErrNoCurrentSpace
	}

	return client.InvocationConfig{
		Issuer:     c.agent.Issuer(),
		Space:      space,
		Proofs:     c.agent.Proofs(abilities...),
		Connection: c.conn,
	}, nil
}
