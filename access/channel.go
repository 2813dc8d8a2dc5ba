// Package access implements the out-of-band channel the service uses to
// deliver delegations that cannot be returned in a receipt, such as the
// voucher redemption delegation issued after an email address has been
// verified. The client holds a websocket open and waits for the service to
// push the delegation.
package access

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	logging "github.com/ipfs/go-log/v2"
	"github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"

	cdg "github.com/storacha/go-w3up-client/delegation"
)

var log = logging.Logger("w3up/access")

// DefaultURL is the production access service endpoint.
const DefaultURL = "wss://up.storacha.network/validate-ws"

// registration is sent once after connecting to tell the service which
// agent is waiting.
type registration struct {
	DID string `json:"did"`
}

// message is a frame pushed by the service. Delegation carries a base64
// encoded CAR archive when Type is "delegation".
type message struct {
	Type       string `json:"type"`
	Delegation string `json:"delegation,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Channel is a claim-wait channel backed by a websocket endpoint.
type Channel struct {
	url *url.URL
}

// NewChannel creates a channel that connects to the given websocket URL.
func NewChannel(u *url.URL) *Channel {
	return &Channel{url: u}
}

// AwaitClaim connects, registers the audience and blocks until the service
// pushes a delegation addressed to it. There is no cap on how long this
// waits - the service will not send anything until an external party (e.g.
// the user clicking a link in an email) acts - so callers must supply a
// context to bound it. Cancelling the context aborts the wait and returns
// the context's error.
func (c *Channel) AwaitClaim(ctx context.Context, audience did.DID) (delegation.Delegation, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to access service: %w", err)
	}
	defer conn.Close()

	reg, err := json.Marshal(registration{DID: audience.String()})
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, reg); err != nil {
		return nil, fmt.Errorf("registering with access service: %w", err)
	}

	log.Debugw("awaiting claim", "audience", audience)

	type outcome struct {
		proof delegation.Delegation
		err   error
	}
	results := make(chan outcome, 1)

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				results <- outcome{err: fmt.Errorf("reading from access service: %w", err)}
				return
			}

			var msg message
			if err := json.Unmarshal(data, &msg); err != nil {
				results <- outcome{err: fmt.Errorf("decoding access message: %w", err)}
				return
			}

			switch msg.Type {
			case "delegation":
				archive, err := base64.StdEncoding.DecodeString(msg.Delegation)
				if err != nil {
					results <- outcome{err: fmt.Errorf("decoding delegation archive: %w", err)}
					return
				}
				proof, err := cdg.ExtractProof(archive)
				if err != nil {
					results <- outcome{err: fmt.Errorf("extracting claim delegation: %w", err)}
					return
				}
				if proof.Audience().DID() != audience {
					log.Warnw("discarding delegation for other audience", "audience", proof.Audience().DID())
					continue
				}
				results <- outcome{proof: proof}
				return
			case "error":
				results <- outcome{err: fmt.Errorf("access service: %s", msg.Error)}
				return
			default:
				// keepalives and unknown frames are ignored
			}
		}
	}()

	select {
	case <-ctx.Done():
		// closing the connection unblocks the read loop
		conn.Close()
		return nil, ctx.Err()
	case res := <-results:
		return res.proof, res.err
	}
}
