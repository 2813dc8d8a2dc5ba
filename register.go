package w3up

import (
	"context"
	"fmt"

	udelegation "github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"

	"github.com/storacha/go-w3up-client/agent"
	"github.com/storacha/go-w3up-client/capability"
	"github.com/storacha/go-w3up-client/capability/voucherclaim"
	"github.com/storacha/go-w3up-client/capability/voucherredeem"
	"github.com/storacha/go-w3up-client/client"
)

// DefaultProduct is the product tier spaces are registered for unless
// WithProduct overrides it.
const DefaultProduct = "product:free"

// RegisterOption configures a space registration.
type RegisterOption func(cfg *registerConfig) error

type registerConfig struct {
	product string
}

// WithProduct sets the product tier the space is registered for.
func WithProduct(product string) RegisterOption {
	return func(cfg *registerConfig) error {
		cfg.product = product
		return nil
	}
}

// RegisterSpace registers the current space with the service under the
// given email address. It claims a voucher for the address, waits for the
// service to deliver the redemption delegation over the access channel
// (which happens only after the address has been verified, so callers
// should bound the wait with the context), then redeems the voucher,
// attaching a full-authority delegation on the space to the service so the
// space can be recovered from the verified address later.
//
// Cancelling the context while waiting aborts the registration with the
// context's error. No recovery delegation is issued in that case.
func (c *Client) RegisterSpace(ctx context.Context, email string, options ...RegisterOption) error {
	cfg := registerConfig{product: DefaultProduct}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return err
		}
	}

	space, ok := c.agent.CurrentSpace()
	if !ok {
		return ErrNoCurrentSpace
	}

	icfg, err := c.invocationConfig(capability.VoucherClaim)
	if err != nil {
		return err
	}
	service := c.serviceDID()

	_, err = c.service.VoucherClaim(ctx, icfg, voucherclaim.Caveat{
		Identity: "mailto:" + email,
		Product:  cfg.product,
		Service:  service.String(),
	})
	if err != nil {
		return fmt.Errorf("claiming voucher: %w", err)
	}

	log.Debugw("voucher claimed, awaiting redemption delegation", "space", space, "email", email)

	claim, err := c.access.AwaitClaim(ctx, c.agent.DID())
	if err != nil {
		return fmt.Errorf("awaiting voucher delegation: %w", err)
	}

	// full authority over the space, so the service can restore access to it
	// from the verified address
	recovery, err := c.agent.Delegate(
		service,
		space,
		[]capability.Ability{capability.Top},
		agent.DelegationMeta{Name: "recovery", Type: "service"},
		udelegation.WithNoExpiration(),
	)
	if err != nil {
		return fmt.Errorf("delegating to service: %w", err)
	}

	rcfg, err := c.invocationConfig(capability.VoucherRedeem)
	if err != nil {
		return err
	}
	rcfg.Proofs = append(rcfg.Proofs, claim, recovery.Delegation)

	_, err = c.service.VoucherRedeem(ctx, rcfg, voucherredeem.Caveat{
		Product:  cfg.product,
		Identity: "mailto:" + email,
		Account:  space.String(),
	})
	if err != nil {
		return fmt.Errorf("redeeming voucher: %w", err)
	}

	return c.agent.MarkSpaceRegistered(space)
}

// serviceDID is the DID of the service invocations are addressed to.
func (c *Client) serviceDID() did.DID {
	if c.conn != nil {
		return c.conn.ID().DID()
	}
	return client.DefaultConnection.ID().DID()
}
