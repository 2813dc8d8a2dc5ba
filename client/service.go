package client

import (
	"context"
	"fmt"

	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/core/result"

	"github.com/storacha/go-w3up-client/capability"
	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/capability/voucherclaim"
	"github.com/storacha/go-w3up-client/capability/voucherredeem"
)

// RemoteError is a failure reported by the remote service in a receipt. It
// is surfaced verbatim - no recovery or retry is attempted at this layer.
type RemoteError struct {
	Capability capability.Ability
	Name       string
	Message    string
	Stack      string
}

func (e *RemoteError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s", e.Capability, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Capability, e.Message)
}

func remoteError(ability capability.Ability, name *string, message string, stack *string) error {
	err := RemoteError{Capability: ability, Message: message}
	if name != nil {
		err.Name = *name
	}
	if stack != nil {
		err.Stack = *stack
	}
	return &err
}

// Service invokes capabilities against a single remote service over one
// connection. It unwraps receipts, converting remote failures to
// RemoteError.
type Service struct {
	conn uclient.Connection
}

// NewService creates a service bound to the given connection.
// DefaultConnection is used when conn is nil.
func NewService(conn uclient.Connection) *Service {
	if conn == nil {
		conn = DefaultConnection
	}
	return &Service{conn: conn}
}

func (s *Service) config(cfg InvocationConfig) InvocationConfig {
	if cfg.Connection == nil {
		cfg.Connection = s.conn
	}
	return cfg
}

func (s *Service) StoreAdd(ctx context.Context, cfg InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcpt, err := StoreAdd(ctx, s.config(cfg), nb)
	if err != nil {
		return nil, err
	}

	ok, failure := result.Unwrap(rcpt.Out())
	if failure != nil {
		return nil, remoteError(storeadd.Ability, failure.Name, failure.Message, failure.Stack)
	}
	return ok, nil
}

func (s *Service) UploadAdd(ctx context.Context, cfg InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcpt, err := UploadAdd(ctx, s.config(cfg), nb)
	if err != nil {
		return nil, err
	}

	ok, failure := result.Unwrap(rcpt.Out())
	if failure != nil {
		return nil, remoteError(uploadadd.Ability, failure.Name, failure.Message, failure.Stack)
	}
	return ok, nil
}

func (s *Service) UploadList(ctx context.Context, cfg InvocationConfig, nb uploadlist.Caveat) (*uploadlist.Success, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcpt, err := UploadList(ctx, s.config(cfg), nb)
	if err != nil {
		return nil, err
	}

	ok, failure := result.Unwrap(rcpt.Out())
	if failure != nil {
		return nil, remoteError(uploadlist.Ability, failure.Name, failure.Message, failure.Stack)
	}
	return ok, nil
}

func (s *Service) VoucherClaim(ctx context.Context, cfg InvocationConfig, nb voucherclaim.Caveat) (*voucherclaim.Success, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcpt, err := VoucherClaim(ctx, s.config(cfg), nb)
	if err != nil {
		return nil, err
	}

	ok, failure := result.Unwrap(rcpt.Out())
	if failure != nil {
		return nil, remoteError(voucherclaim.Ability, failure.Name, failure.Message, failure.Stack)
	}
	return ok, nil
}

func (s *Service) VoucherRedeem(ctx context.Context, cfg InvocationConfig, nb voucherredeem.Caveat) (*voucherredeem.Success, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rcpt, err := VoucherRedeem(ctx, s.config(cfg), nb)
	if err != nil {
		return nil, err
	}

	ok, failure := result.Unwrap(rcpt.Out())
	if failure != nil {
		return nil, remoteError(voucherredeem.Ability, failure.Name, failure.Message, failure.Stack)
	}
	return ok, nil
}
