// Package agent owns the client's cryptographic identity and its registries
// of spaces, proofs and issued delegations. The facade in the root package
// reads through it on every call and never caches its state.
package agent

import (
	"errors"
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/principal"
	ed25519signer "github.com/storacha/go-ucanto/principal/ed25519/signer"
	"github.com/storacha/go-ucanto/ucan"

	"github.com/storacha/go-w3up-client/capability"
)

var log = logging.Logger("w3up/agent")

var (
	// ErrSpaceNotFound is returned when a DID does not name a space known to
	// the agent.
	ErrSpaceNotFound = errors.New("space not found")
	// ErrAudienceMismatch is returned when a proof being added is not
	// addressed to this agent.
	ErrAudienceMismatch = errors.New("delegation audience does not match agent")
)

// SpaceMeta is metadata the agent keeps about a space.
type SpaceMeta struct {
	Name       string
	Registered bool
}

// SpaceInfo pairs a space DID with its metadata.
type SpaceInfo struct {
	DID  did.DID
	Meta SpaceMeta
}

// DelegationMeta is display metadata about the audience of an issued
// delegation.
type DelegationMeta struct {
	// Name is a display name for the audience, e.g. "laptop".
	Name string
	// Type describes the kind of principal the audience is, e.g. "device".
	Type string
}

// IssuedDelegation is a delegation this agent issued to another principal,
// with the audience metadata recorded at creation time.
type IssuedDelegation struct {
	Delegation delegation.Delegation
	Meta       DelegationMeta
}

// Option configures an agent.
type Option func(a *Agent) error

// WithSigner configures the signing identity. A fresh ed25519 key is
// generated when not supplied and the store holds no previous identity.
func WithSigner(signer principal.Signer) Option {
	return func(a *Agent) error {
		a.signer = signer
		return nil
	}
}

// WithStore configures persistence. Agent state is written to the store
// after every mutation and restored from it on construction.
func WithStore(store Store) Option {
	return func(a *Agent) error {
		a.store = store
		return nil
	}
}

// Agent is an in-memory, optionally persisted implementation of the
// identity and registry collaborator. All methods are safe for concurrent
// use; the registries are guarded by a single read-write mutex.
type Agent struct {
	mu          sync.RWMutex
	signer      principal.Signer
	current     did.DID
	spaces      map[string]SpaceInfo
	proofs      map[string]delegation.Delegation
	delegations map[string]IssuedDelegation
	store       Store
}

// New creates an agent. State is restored from the configured store when it
// holds a previous snapshot, otherwise a signing identity is generated
// unless one was supplied.
func New(options ...Option) (*Agent, error) {
	a := &Agent{
		spaces:      map[string]SpaceInfo{},
		proofs:      map[string]delegation.Delegation{},
		delegations: map[string]IssuedDelegation{},
	}
	for _, opt := range options {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.store != nil {
		ok, err := a.load()
		if err != nil {
			return nil, fmt.Errorf("loading agent state: %w", err)
		}
		if ok {
			return a, nil
		}
	}

	if a.signer == nil {
		signer, err := ed25519signer.Generate()
		if err != nil {
			return nil, fmt.Errorf("generating signer: %w", err)
		}
		a.signer = signer
	}

	if err := a.persist(); err != nil {
		return nil, err
	}

	return a, nil
}

// DID returns the agent's identity.
func (a *Agent) DID() did.DID {
	return a.signer.DID()
}

// Issuer returns the agent's signing identity.
func (a *Agent) Issuer() principal.Signer {
	return a.signer
}

// CurrentSpace returns the DID of the currently selected space. The second
// return value is false when no space is selected.
func (a *Agent) CurrentSpace() (did.DID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current, a.current != did.Undef
}

// SetCurrentSpace selects the space subsequent operations apply to. It
// fails with ErrSpaceNotFound, leaving the selection unchanged, when the
// DID does not name a known space.
func (a *Agent) SetCurrentSpace(id did.DID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.spaces[id.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	a.current = id
	return a.persistLocked()
}

// Spaces returns all spaces known to the agent.
func (a *Agent) Spaces() []SpaceInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var infos []SpaceInfo
	for _, info := range a.spaces {
		infos = append(infos, info)
	}
	return infos
}

// Space returns the metadata for a known space.
func (a *Agent) Space(id did.DID) (SpaceInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	info, ok := a.spaces[id.String()]
	if !ok {
		return SpaceInfo{}, fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	return info, nil
}

// CreateSpace generates a new space keypair, delegates full authority over
// it to this agent and records both. The new space does not become current.
func (a *Agent) CreateSpace(name string) (SpaceInfo, error) {
	signer, err := ed25519signer.Generate()
	if err != nil {
		return SpaceInfo{}, fmt.Errorf("generating space key: %w", err)
	}

	cap := ucan.NewCapability(capability.Top.String(), signer.DID().String(), ucan.NoCaveats{})
	proof, err := delegation.Delegate(
		signer,
		a.signer,
		[]ucan.Capability[ucan.NoCaveats]{cap},
		delegation.WithNoExpiration(),
	)
	if err != nil {
		return SpaceInfo{}, fmt.Errorf("delegating to agent: %w", err)
	}

	info := SpaceInfo{DID: signer.DID(), Meta: SpaceMeta{Name: name}}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.spaces[info.DID.String()] = info
	a.proofs[proof.Link().String()] = proof
	if err := a.persistLocked(); err != nil {
		return SpaceInfo{}, err
	}
	return info, nil
}

// ImportSpace records a space this agent was delegated access to. The space
// DID is derived from the resource of the delegation's capabilities and the
// delegation itself is stored as a proof.
func (a *Agent) ImportSpace(proof delegation.Delegation) (SpaceInfo, error) {
	if proof.Audience().DID() != a.DID() {
		return SpaceInfo{}, fmt.Errorf("%w: %s", ErrAudienceMismatch, proof.Audience().DID())
	}

	caps := proof.Capabilities()
	if len(caps) == 0 {
		return SpaceInfo{}, fmt.Errorf("delegation has no capabilities")
	}

	id, err := did.Parse(caps[0].With())
	if err != nil {
		return SpaceInfo{}, fmt.Errorf("parsing space DID: %w", err)
	}

	info := SpaceInfo{DID: id}

	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.spaces[id.String()]; ok {
		info = existing
	}
	a.spaces[id.String()] = info
	a.proofs[proof.Link().String()] = proof
	if err := a.persistLocked(); err != nil {
		return SpaceInfo{}, err
	}
	return info, nil
}

// MarkSpaceRegistered records that a space has been registered with the
// remote service.
func (a *Agent) MarkSpaceRegistered(id did.DID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, ok := a.spaces[id.String()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	info.Meta.Registered = true
	a.spaces[id.String()] = info
	return a.persistLocked()
}

// Proofs returns delegations whose audience is this agent, optionally
// filtered to those authorizing at least one of the given abilities. An
// empty filter returns everything.
func (a *Agent) Proofs(abilities ...capability.Ability) []delegation.Delegation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var proofs []delegation.Delegation
	for _, proof := range a.proofs {
		if authorizes(proof, abilities) {
			proofs = append(proofs, proof)
		}
	}
	return proofs
}

// AddProof stores a delegation granting this agent a capability. It fails
// with ErrAudienceMismatch, leaving the proof set unchanged, when the
// delegation is not addressed to this agent.
func (a *Agent) AddProof(proof delegation.Delegation) error {
	if proof.Audience().DID() != a.DID() {
		return fmt.Errorf("%w: %s", ErrAudienceMismatch, proof.Audience().DID())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.proofs[proof.Link().String()] = proof
	return a.persistLocked()
}

// Delegations returns delegations this agent issued to others, optionally
// filtered by ability, mirroring the Proofs filter with the issuer and
// audience roles reversed.
func (a *Agent) Delegations(abilities ...capability.Ability) []IssuedDelegation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var issued []IssuedDelegation
	for _, d := range a.delegations {
		if authorizes(d.Delegation, abilities) {
			issued = append(issued, d)
		}
	}
	return issued
}

// Delegate creates and signs a delegation from this agent to audience for
// the given abilities over the resource, including the agent's own proofs
// for those abilities so the audience can build a valid chain. The result
// is recorded in the issued-delegation registry.
func (a *Agent) Delegate(audience did.DID, resource did.DID, abilities []capability.Ability, meta DelegationMeta, options ...delegation.Option) (IssuedDelegation, error) {
	var caps []ucan.Capability[ucan.NoCaveats]
	for _, ability := range abilities {
		caps = append(caps, ucan.NewCapability(ability.String(), resource.String(), ucan.NoCaveats{}))
	}

	var proofs []delegation.Proof
	for _, proof := range a.Proofs(abilities...) {
		proofs = append(proofs, delegation.FromDelegation(proof))
	}

	opts := options
	if len(proofs) > 0 {
		opts = append(opts, delegation.WithProof(proofs...))
	}

	d, err := delegation.Delegate(a.signer, audience, caps, opts...)
	if err != nil {
		return IssuedDelegation{}, fmt.Errorf("delegating: %w", err)
	}

	issued := IssuedDelegation{Delegation: d, Meta: meta}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.delegations[d.Link().String()] = issued
	if err := a.persistLocked(); err != nil {
		return IssuedDelegation{}, err
	}
	return issued, nil
}

// authorizes reports whether the delegation grants at least one of the
// requested abilities. An empty request matches everything.
func authorizes(d delegation.Delegation, abilities []capability.Ability) bool {
	if len(abilities) == 0 {
		return true
	}
	for _, c := range d.Capabilities() {
		for _, ability := range abilities {
			if capability.Match(c.Can(), ability) {
				return true
			}
		}
	}
	return false
}
