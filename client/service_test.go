package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/multiformats/go-multihash"
	"github.com/storacha/go-ucanto/principal/ed25519/signer"
	"github.com/stretchr/testify/require"

	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/capability/voucherclaim"
	"github.com/storacha/go-w3up-client/capability/voucherredeem"
	"github.com/storacha/go-w3up-client/client"
)

// testConfig builds an invocation config against an HTTP endpoint.
func testConfig(t *testing.T, endpoint string) client.InvocationConfig {
	t.Helper()

	issuer, err := signer.Generate()
	require.NoError(t, err)
	space, err := signer.Generate()
	require.NoError(t, err)
	service, err := signer.Generate()
	require.NoError(t, err)

	serviceURL, err := url.Parse(endpoint)
	require.NoError(t, err)
	conn, err := client.NewConnection(service.DID(), serviceURL)
	require.NoError(t, err)

	return client.InvocationConfig{
		Issuer:     issuer,
		Space:      space.DID(),
		Connection: conn,
	}
}

func TestServiceContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invocation executed despite cancelled context")
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	svc := client.NewService(cfg.Connection)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.StoreAdd(ctx, cfg, storeadd.Caveat{})
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.UploadAdd(ctx, cfg, uploadadd.Caveat{})
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.UploadList(ctx, cfg, uploadlist.Caveat{})
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.VoucherClaim(ctx, cfg, voucherclaim.Caveat{})
	require.ErrorIs(t, err, context.Canceled)
	_, err = svc.VoucherRedeem(ctx, cfg, voucherredeem.Caveat{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreAddServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	data := []byte("test shard")
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	require.NoError(t, err)
	link := cidlink.Link{Cid: cid.NewCidV1(0x0202, mh)}

	_, err = client.StoreAdd(context.Background(), cfg, storeadd.Caveat{Link: link, Size: uint64(len(data))})
	require.Error(t, err)
}
