package access_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	udelegation "github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/principal/ed25519/signer"
	"github.com/storacha/go-ucanto/ucan"
	"github.com/stretchr/testify/require"

	"github.com/storacha/go-w3up-client/access"
	cdg "github.com/storacha/go-w3up-client/delegation"
)

var upgrader = websocket.Upgrader{}

// newAccessServer runs a websocket endpoint that calls handle with each
// connection after the registration frame has been read.
func newAccessServer(t *testing.T, handle func(conn *websocket.Conn, reg map[string]string)) *url.URL {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reg := map[string]string{}
		if err := json.Unmarshal(data, &reg); err != nil {
			return
		}
		handle(conn, reg)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	return u
}

func TestAwaitClaim(t *testing.T) {
	service, err := signer.Generate()
	require.NoError(t, err)
	agent, err := signer.Generate()
	require.NoError(t, err)

	cap := ucan.NewCapability("voucher/redeem", service.DID().String(), ucan.NoCaveats{})
	claim, err := udelegation.Delegate(service, agent, []ucan.Capability[ucan.NoCaveats]{cap}, udelegation.WithNoExpiration())
	require.NoError(t, err)

	archive, err := cdg.Encode(claim)
	require.NoError(t, err)

	u := newAccessServer(t, func(conn *websocket.Conn, reg map[string]string) {
		require.Equal(t, agent.DID().String(), reg["did"])
		msg, _ := json.Marshal(map[string]string{
			"type":       "delegation",
			"delegation": base64.StdEncoding.EncodeToString(archive),
		})
		conn.WriteMessage(websocket.TextMessage, msg)
	})

	proof, err := access.NewChannel(u).AwaitClaim(context.Background(), agent.DID())
	require.NoError(t, err)
	require.Equal(t, claim.Link().String(), proof.Link().String())
}

func TestAwaitClaimIgnoresOtherAudiences(t *testing.T) {
	service, err := signer.Generate()
	require.NoError(t, err)
	agent, err := signer.Generate()
	require.NoError(t, err)
	stranger, err := signer.Generate()
	require.NoError(t, err)

	cap := ucan.NewCapability("voucher/redeem", service.DID().String(), ucan.NoCaveats{})

	misdirected, err := udelegation.Delegate(service, stranger, []ucan.Capability[ucan.NoCaveats]{cap}, udelegation.WithNoExpiration())
	require.NoError(t, err)
	misdirectedArchive, err := cdg.Encode(misdirected)
	require.NoError(t, err)

	claim, err := udelegation.Delegate(service, agent, []ucan.Capability[ucan.NoCaveats]{cap}, udelegation.WithNoExpiration())
	require.NoError(t, err)
	archive, err := cdg.Encode(claim)
	require.NoError(t, err)

	// a delegation for someone else arrives first and must be skipped
	u := newAccessServer(t, func(conn *websocket.Conn, reg map[string]string) {
		for _, a := range [][]byte{misdirectedArchive, archive} {
			msg, _ := json.Marshal(map[string]string{
				"type":       "delegation",
				"delegation": base64.StdEncoding.EncodeToString(a),
			})
			conn.WriteMessage(websocket.TextMessage, msg)
		}
	})

	proof, err := access.NewChannel(u).AwaitClaim(context.Background(), agent.DID())
	require.NoError(t, err)
	require.Equal(t, claim.Link().String(), proof.Link().String())
	require.Equal(t, agent.DID(), proof.Audience().DID())
}

func TestAwaitClaimCancelled(t *testing.T) {
	agent, err := signer.Generate()
	require.NoError(t, err)

	// server never sends a claim
	u := newAccessServer(t, func(conn *websocket.Conn, reg map[string]string) {
		time.Sleep(5 * time.Second)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = access.NewChannel(u).AwaitClaim(ctx, agent.DID())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
