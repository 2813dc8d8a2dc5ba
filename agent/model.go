package agent

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"
	ed25519signer "github.com/storacha/go-ucanto/principal/ed25519/signer"

	cdg "github.com/storacha/go-w3up-client/delegation"
)

//go:embed agent.ipldsch
var agentSchema []byte

var (
	once sync.Once
	ts   *schema.TypeSystem
	err  error
)

func mustLoadSchema() *schema.TypeSystem {
	once.Do(func() {
		ts, err = ipld.LoadSchemaBytes(agentSchema)
	})
	if err != nil {
		panic(fmt.Errorf("failed to load IPLD schema: %s", err))
	}
	return ts
}

func agentModelType() schema.Type {
	return mustLoadSchema().TypeByName("Agent")
}

type agentModel struct {
	Signer       []byte
	CurrentSpace *string
	Spaces       spacesModel
	Proofs       [][]byte
	Delegations  []delegationModel
}

type spacesModel struct {
	Keys   []string
	Values map[string]spaceMetaModel
}

type spaceMetaModel struct {
	Name       string
	Registered bool
}

type delegationModel struct {
	Archive []byte
	Name    string
	Kind    string
}

// snapshotLocked encodes the agent state as dag-cbor. Callers must hold the
// mutex.
func (a *Agent) snapshotLocked() ([]byte, error) {
	m := agentModel{
		Signer: a.signer.Encode(),
		Spaces: spacesModel{Values: map[string]spaceMetaModel{}},
	}

	if a.current != did.Undef {
		cur := a.current.String()
		m.CurrentSpace = &cur
	}

	for key, info := range a.spaces {
		m.Spaces.Keys = append(m.Spaces.Keys, key)
		m.Spaces.Values[key] = spaceMetaModel{Name: info.Meta.Name, Registered: info.Meta.Registered}
	}

	for _, proof := range a.proofs {
		b, err := cdg.Encode(proof)
		if err != nil {
			return nil, fmt.Errorf("encoding proof: %w", err)
		}
		m.Proofs = append(m.Proofs, b)
	}

	for _, issued := range a.delegations {
		b, err := cdg.Encode(issued.Delegation)
		if err != nil {
			return nil, fmt.Errorf("encoding delegation: %w", err)
		}
		m.Delegations = append(m.Delegations, delegationModel{
			Archive: b,
			Name:    issued.Meta.Name,
			Kind:    issued.Meta.Type,
		})
	}

	return ipld.Marshal(dagcbor.Encode, &m, agentModelType())
}

// restore replaces the agent state with the contents of a snapshot.
func (a *Agent) restore(data []byte) error {
	m := agentModel{}
	if _, err := ipld.Unmarshal(data, dagcbor.Decode, &m, agentModelType()); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	signer, err := ed25519signer.Decode(m.Signer)
	if err != nil {
		return fmt.Errorf("decoding signer: %w", err)
	}
	a.signer = signer

	a.current = did.Undef
	if m.CurrentSpace != nil {
		cur, err := did.Parse(*m.CurrentSpace)
		if err != nil {
			return fmt.Errorf("parsing current space DID: %w", err)
		}
		a.current = cur
	}

	a.spaces = map[string]SpaceInfo{}
	for _, key := range m.Spaces.Keys {
		id, err := did.Parse(key)
		if err != nil {
			return fmt.Errorf("parsing space DID: %w", err)
		}
		meta := m.Spaces.Values[key]
		a.spaces[key] = SpaceInfo{DID: id, Meta: SpaceMeta{Name: meta.Name, Registered: meta.Registered}}
	}

	a.proofs = map[string]delegation.Delegation{}
	for _, b := range m.Proofs {
		proof, err := cdg.ExtractProof(b)
		if err != nil {
			return fmt.Errorf("extracting proof: %w", err)
		}
		a.proofs[proof.Link().String()] = proof
	}

	a.delegations = map[string]IssuedDelegation{}
	for _, dm := range m.Delegations {
		d, err := cdg.ExtractProof(dm.Archive)
		if err != nil {
			return fmt.Errorf("extracting delegation: %w", err)
		}
		a.delegations[d.Link().String()] = IssuedDelegation{
			Delegation: d,
			Meta:       DelegationMeta{Name: dm.Name, Type: dm.Kind},
		}
	}

	return nil
}
