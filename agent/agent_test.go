package agent_test

import (
	"path/filepath"
	"testing"

	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/principal/ed25519/signer"
	"github.com/storacha/go-ucanto/ucan"
	"github.com/stretchr/testify/require"

	"github.com/storacha/go-w3up-client/agent"
	"github.com/storacha/go-w3up-client/capability"
)

func newAgent(t *testing.T, options ...agent.Option) *agent.Agent {
	t.Helper()
	a, err := agent.New(options...)
	require.NoError(t, err)
	return a
}

func TestCreateSpace(t *testing.T) {
	a := newAgent(t)

	info, err := a.CreateSpace("docs")
	require.NoError(t, err)
	require.Equal(t, "docs", info.Meta.Name)
	require.False(t, info.Meta.Registered)

	// creating a space does not select it
	_, ok := a.CurrentSpace()
	require.False(t, ok)

	// the space delegates everything to the agent
	proofs := a.Proofs(capability.StoreAdd)
	require.Len(t, proofs, 1)
	require.Equal(t, a.DID().String(), proofs[0].Audience().DID().String())
}

func TestSetCurrentSpaceUnknown(t *testing.T) {
	a := newAgent(t)

	other, err := signer.Generate()
	require.NoError(t, err)

	err = a.SetCurrentSpace(other.DID())
	require.ErrorIs(t, err, agent.ErrSpaceNotFound)

	_, ok := a.CurrentSpace()
	require.False(t, ok)
}

func TestSetCurrentSpace(t *testing.T) {
	a := newAgent(t)

	info, err := a.CreateSpace("docs")
	require.NoError(t, err)
	require.NoError(t, a.SetCurrentSpace(info.DID))

	cur, ok := a.CurrentSpace()
	require.True(t, ok)
	require.Equal(t, info.DID, cur)
}

func TestSpaces(t *testing.T) {
	a := newAgent(t)

	first, err := a.CreateSpace("one")
	require.NoError(t, err)
	second, err := a.CreateSpace("two")
	require.NoError(t, err)

	spaces := a.Spaces()
	require.Len(t, spaces, 2)

	dids := map[string]string{}
	for _, s := range spaces {
		dids[s.DID.String()] = s.Meta.Name
	}
	require.Equal(t, "one", dids[first.DID.String()])
	require.Equal(t, "two", dids[second.DID.String()])
}

func TestAddProofAudienceMismatch(t *testing.T) {
	a := newAgent(t)

	issuer, err := signer.Generate()
	require.NoError(t, err)
	stranger, err := signer.Generate()
	require.NoError(t, err)

	cap := ucan.NewCapability("store/add", issuer.DID().String(), ucan.NoCaveats{})
	dlg, err := delegation.Delegate(issuer, stranger, []ucan.Capability[ucan.NoCaveats]{cap}, delegation.WithNoExpiration())
	require.NoError(t, err)

	err = a.AddProof(dlg)
	require.ErrorIs(t, err, agent.ErrAudienceMismatch)
	require.Empty(t, a.Proofs())
}

func TestProofsFilterIsSubset(t *testing.T) {
	a := newAgent(t)

	issuer, err := signer.Generate()
	require.NoError(t, err)

	for _, can := range []string{"store/add", "upload/list"} {
		cap := ucan.NewCapability(can, issuer.DID().String(), ucan.NoCaveats{})
		dlg, err := delegation.Delegate(issuer, a.Issuer(), []ucan.Capability[ucan.NoCaveats]{cap}, delegation.WithNoExpiration())
		require.NoError(t, err)
		require.NoError(t, a.AddProof(dlg))
	}

	all := a.Proofs()
	require.Len(t, all, 2)

	filtered := a.Proofs(capability.StoreAdd)
	require.Len(t, filtered, 1)

	links := map[string]bool{}
	for _, p := range all {
		links[p.Link().String()] = true
	}
	for _, p := range filtered {
		require.True(t, links[p.Link().String()], "filtered proof not in unfiltered set")
		matched := false
		for _, c := range p.Capabilities() {
			if capability.Match(c.Can(), capability.StoreAdd) {
				matched = true
			}
		}
		require.True(t, matched)
	}
}

func TestDelegate(t *testing.T) {
	a := newAgent(t)

	info, err := a.CreateSpace("docs")
	require.NoError(t, err)

	device, err := signer.Generate()
	require.NoError(t, err)

	meta := agent.DelegationMeta{Name: "agent", Type: "device"}
	issued, err := a.Delegate(device.DID(), info.DID, []capability.Ability{capability.StoreAdd, capability.UploadAdd}, meta)
	require.NoError(t, err)
	require.Equal(t, device.DID().String(), issued.Delegation.Audience().DID().String())

	listed := a.Delegations()
	require.Len(t, listed, 1)
	require.Equal(t, meta, listed[0].Meta)

	// filter mirrors the proof model
	require.Len(t, a.Delegations(capability.StoreAdd), 1)
	require.Empty(t, a.Delegations(capability.VoucherRedeem))
}

func TestImportSpace(t *testing.T) {
	a := newAgent(t)

	space, err := signer.Generate()
	require.NoError(t, err)

	cap := ucan.NewCapability("*", space.DID().String(), ucan.NoCaveats{})
	dlg, err := delegation.Delegate(space, a.Issuer(), []ucan.Capability[ucan.NoCaveats]{cap}, delegation.WithNoExpiration())
	require.NoError(t, err)

	info, err := a.ImportSpace(dlg)
	require.NoError(t, err)
	require.Equal(t, space.DID(), info.DID)

	require.Len(t, a.Spaces(), 1)
	require.Len(t, a.Proofs(), 1)
}

func TestPersistence(t *testing.T) {
	store := &agent.FileStore{Path: filepath.Join(t.TempDir(), "agent")}

	a := newAgent(t, agent.WithStore(store))
	info, err := a.CreateSpace("docs")
	require.NoError(t, err)
	require.NoError(t, a.SetCurrentSpace(info.DID))
	require.NoError(t, a.MarkSpaceRegistered(info.DID))

	restored := newAgent(t, agent.WithStore(store))
	require.Equal(t, a.DID(), restored.DID())

	cur, ok := restored.CurrentSpace()
	require.True(t, ok)
	require.Equal(t, info.DID, cur)

	got, err := restored.Space(info.DID)
	require.NoError(t, err)
	require.Equal(t, "docs", got.Meta.Name)
	require.True(t, got.Meta.Registered)

	require.Len(t, restored.Proofs(), 1)
}
