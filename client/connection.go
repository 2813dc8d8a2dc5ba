package client

import (
	"log"
	"net/url"

	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/transport/car"
	"github.com/storacha/go-ucanto/transport/http"
)

const defaultServiceName = "up.storacha.network"

// DefaultConnection is a connection to the production service. It is used
// by the invocation functions when the InvocationConfig does not carry a
// connection of its own.
var DefaultConnection uclient.Connection

func init() {
	serviceURL, err := url.Parse("https://" + defaultServiceName)
	if err != nil {
		log.Fatal(err)
	}

	servicePrincipal, err := did.Parse("did:web:" + defaultServiceName)
	if err != nil {
		log.Fatal(err)
	}

	// HTTP transport and CAR encoding
	channel := http.NewHTTPChannel(serviceURL)
	codec := car.NewCAROutboundCodec()

	conn, err := uclient.NewConnection(servicePrincipal, channel, uclient.WithOutboundCodec(codec))
	if err != nil {
		log.Fatal(err)
	}

	DefaultConnection = conn
}

// NewConnection creates a connection to a service at the given URL using
// HTTP transport and CAR encoding.
func NewConnection(principal did.DID, serviceURL *url.URL) (uclient.Connection, error) {
	channel := http.NewHTTPChannel(serviceURL)
	codec := car.NewCAROutboundCodec()
	return uclient.NewConnection(principal, channel, uclient.WithOutboundCodec(codec))
}
