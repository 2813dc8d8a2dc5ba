package client

import (
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/ucan"
)

// Option is an option configuring a UCAN invocation.
type Option func(cfg *invocationOptions) error

type invocationOptions struct {
	exp *int
	nbf int
	nnc string
	fct []ucan.FactBuilder
}

// WithExpiration configures the expiration time in UTC seconds since Unix
// epoch. Set this to -1 for no expiration.
func WithExpiration(exp int) Option {
	return func(opts *invocationOptions) error {
		opts.exp = &exp
		return nil
	}
}

// WithNotBefore configures the time in UTC seconds since Unix epoch when the
// UCAN will become valid.
func WithNotBefore(nbf int) Option {
	return func(opts *invocationOptions) error {
		opts.nbf = nbf
		return nil
	}
}

// WithNonce configures the nonce value for the UCAN.
func WithNonce(nnc string) Option {
	return func(opts *invocationOptions) error {
		opts.nnc = nnc
		return nil
	}
}

// WithFacts configures the facts for the UCAN.
func WithFacts(fct []ucan.FactBuilder) Option {
	return func(opts *invocationOptions) error {
		opts.fct = fct
		return nil
	}
}

// convertToInvocationOptions folds the per-invocation options and the proofs
// from the invocation configuration into delegation options understood by
// go-ucanto.
func convertToInvocationOptions(cfg InvocationConfig, options []Option) ([]delegation.Option, error) {
	io := invocationOptions{}
	for _, opt := range options {
		if err := opt(&io); err != nil {
			return nil, err
		}
	}

	var opts []delegation.Option
	if io.exp != nil {
		opts = append(opts, delegation.WithExpiration(*io.exp))
	} else {
		opts = append(opts, delegation.WithNoExpiration())
	}
	if io.nbf != 0 {
		opts = append(opts, delegation.WithNotBefore(io.nbf))
	}
	if io.nnc != "" {
		opts = append(opts, delegation.WithNonce(io.nnc))
	}
	if io.fct != nil {
		opts = append(opts, delegation.WithFacts(io.fct))
	}
	if len(cfg.Proofs) > 0 {
		proofs := []delegation.Proof{}
		for _, dlg := range cfg.Proofs {
			proofs = append(proofs, delegation.FromDelegation(dlg))
		}
		opts = append(opts, delegation.WithProof(proofs...))
	}
	return opts, nil
}
