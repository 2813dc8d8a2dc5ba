package client

import (
	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/principal"
)

// InvocationConfig is the ephemeral bundle of issuer identity, authorizing
// proofs and target service connection used to perform one invocation. It is
// derived per call and never reused - each call may need a different proof
// set.
type InvocationConfig struct {
	// Issuer is the signing authority issuing the UCAN invocation.
	Issuer principal.Signer
	// Space is the resource the invocation applies to, typically the DID of
	// a space.
	Space did.DID
	// Proofs are delegations that prove the issuer is authorized to perform
	// the invoked capability on the resource.
	Proofs []delegation.Delegation
	// Connection to execute the invocation on. DefaultConnection is used
	// when nil.
	Connection uclient.Connection
}

func (cfg InvocationConfig) connection() uclient.Connection {
	if cfg.Connection != nil {
		return cfg.Connection
	}
	return DefaultConnection
}
