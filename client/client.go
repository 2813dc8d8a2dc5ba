// Package client provides low-level invocation functions for the capability
// namespaces the w3up service exposes. Each function derives a UCAN
// invocation from an InvocationConfig, executes it on the configured
// connection and reads the receipt from the response.
package client

import (
	"context"
	"fmt"

	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/core/invocation"
	"github.com/storacha/go-ucanto/core/receipt"

	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/capability/voucherclaim"
	"github.com/storacha/go-w3up-client/capability/voucherredeem"
)

// StoreAdd stores a DAG encoded as a CAR file. The issuer needs proof of
// `store/add` delegated capability.
func StoreAdd(ctx context.Context, cfg InvocationConfig, nb storeadd.Caveat, options ...Option) (receipt.Receipt[*storeadd.Success, *storeadd.Failure], error) {
	conn := cfg.connection()

	opts, err := convertToInvocationOptions(cfg, options)
	if err != nil {
		return nil, err
	}

	inv, err := invocation.Invoke(cfg.Issuer, conn.ID(), storeadd.NewCapability(cfg.Space, nb), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := uclient.Execute(ctx, []invocation.Invocation{inv}, conn)
	if err != nil {
		return nil, err
	}

	rcptlnk, ok := resp.Get(inv.Link())
	if !ok {
		return nil, fmt.Errorf("receipt not found: %s", inv.Link())
	}

	reader, err := storeadd.NewReceiptReader()
	if err != nil {
		return nil, err
	}

	return reader.Read(rcptlnk, resp.Blocks())
}

// UploadAdd registers an "upload" with the service - a DAG root and the CAR
// shards it is stored in. The issuer needs proof of `upload/add` delegated
// capability.
func UploadAdd(ctx context.Context, cfg InvocationConfig, nb uploadadd.Caveat, options ...Option) (receipt.Receipt[*uploadadd.Success, *uploadadd.Failure], error) {
	conn := cfg.connection()

	opts, err := convertToInvocationOptions(cfg, options)
	if err != nil {
		return nil, err
	}

	inv, err := invocation.Invoke(cfg.Issuer, conn.ID(), uploadadd.NewCapability(cfg.Space, nb), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := uclient.Execute(ctx, []invocation.Invocation{inv}, conn)
	if err != nil {
		return nil, err
	}

	rcptlnk, ok := resp.Get(inv.Link())
	if !ok {
		return nil, fmt.Errorf("receipt not found: %s", inv.Link())
	}

	reader, err := uploadadd.NewReceiptReader()
	if err != nil {
		return nil, err
	}

	return reader.Read(rcptlnk, resp.Blocks())
}

// UploadList returns a paginated list of uploads in a space. The issuer
// needs proof of `upload/list` delegated capability.
func UploadList(ctx context.Context, cfg InvocationConfig, nb uploadlist.Caveat, options ...Option) (receipt.Receipt[*uploadlist.Success, *uploadlist.Failure], error) {
	conn := cfg.connection()

	opts, err := convertToInvocationOptions(cfg, options)
	if err != nil {
		return nil, err
	}

	inv, err := invocation.Invoke(cfg.Issuer, conn.ID(), uploadlist.NewCapability(cfg.Space, nb), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := uclient.Execute(ctx, []invocation.Invocation{inv}, conn)
	if err != nil {
		return nil, err
	}

	rcptlnk, ok := resp.Get(inv.Link())
	if !ok {
		return nil, fmt.Errorf("receipt not found: %s", inv.Link())
	}

	reader, err := uploadlist.NewReceiptReader()
	if err != nil {
		return nil, err
	}

	return reader.Read(rcptlnk, resp.Blocks())
}

// VoucherClaim requests a redemption voucher for a product tier. The voucher
// is delivered out-of-band after the identity in the claim has been
// verified. The issuer needs proof of `voucher/claim` delegated capability
// for the space.
func VoucherClaim(ctx context.Context, cfg InvocationConfig, nb voucherclaim.Caveat, options ...Option) (receipt.Receipt[*voucherclaim.Success, *voucherclaim.Failure], error) {
	conn := cfg.connection()

	opts, err := convertToInvocationOptions(cfg, options)
	if err != nil {
		return nil, err
	}

	inv, err := invocation.Invoke(cfg.Issuer, conn.ID(), voucherclaim.NewCapability(cfg.Space, nb), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := uclient.Execute(ctx, []invocation.Invocation{inv}, conn)
	if err != nil {
		return nil, err
	}

	rcptlnk, ok := resp.Get(inv.Link())
	if !ok {
		return nil, fmt.Errorf("receipt not found: %s", inv.Link())
	}

	reader, err := voucherclaim.NewReceiptReader()
	if err != nil {
		return nil, err
	}

	return reader.Read(rcptlnk, resp.Blocks())
}

// VoucherRedeem redeems a voucher, registering the account in the caveats
// with the service. The resource is the service itself, so the proofs must
// include the delegation the service issued when the claim was verified.
func VoucherRedeem(ctx context.Context, cfg InvocationConfig, nb voucherredeem.Caveat, options ...Option) (receipt.Receipt[*voucherredeem.Success, *voucherredeem.Failure], error) {
	conn := cfg.connection()

	opts, err := convertToInvocationOptions(cfg, options)
	if err != nil {
		return nil, err
	}

	inv, err := invocation.Invoke(cfg.Issuer, conn.ID(), voucherredeem.NewCapability(conn.ID().DID(), nb), opts...)
	if err != nil {
		return nil, err
	}

	resp, err := uclient.Execute(ctx, []invocation.Invocation{inv}, conn)
	if err != nil {
		return nil, err
	}

	rcptlnk, ok := resp.Get(inv.Link())
	if !ok {
		return nil, fmt.Errorf("receipt not found: %s", inv.Link())
	}

	reader, err := voucherredeem.NewReceiptReader()
	if err != nil {
		return nil, err
	}

	return reader.Read(rcptlnk, resp.Blocks())
}
