// Package util builds the pieces of a client from the CLI environment.
package util

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path"

	uclient "github.com/storacha/go-ucanto/client"
	udelegation "github.com/storacha/go-ucanto/core/delegation"
	"github.com/storacha/go-ucanto/did"
	"github.com/storacha/go-ucanto/principal/ed25519/signer"

	w3up "github.com/storacha/go-w3up-client"
	"github.com/storacha/go-w3up-client/access"
	"github.com/storacha/go-w3up-client/agent"
	"github.com/storacha/go-w3up-client/client"
	cdg "github.com/storacha/go-w3up-client/delegation"
)

const defaultServiceName = "up.storacha.network"

// MustGetAgent loads the agent persisted at ~/.w3up/agent, creating it on
// first run. W3UP_PRIVATE_KEY overrides the generated identity.
func MustGetAgent() *agent.Agent {
	homedir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("obtaining user home directory: %s", err)
	}

	options := []agent.Option{
		agent.WithStore(&agent.FileStore{Path: path.Join(homedir, ".w3up", "agent")}),
	}

	if str := os.Getenv("W3UP_PRIVATE_KEY"); str != "" {
		s, err := signer.Parse(str)
		if err != nil {
			log.Fatalf("parsing private key: %s", err)
		}
		options = append(options, agent.WithSigner(s))
	}

	a, err := agent.New(options...)
	if err != nil {
		log.Fatalf("loading agent: %s", err)
	}
	return a
}

func MustGetConnection() uclient.Connection {
	// service URL & DID
	serviceURLStr := os.Getenv("STORACHA_SERVICE_URL") // use env var preferably
	if serviceURLStr == "" {
		serviceURLStr = fmt.Sprintf("https://%s", defaultServiceName)
	}

	serviceURL, err := url.Parse(serviceURLStr)
	if err != nil {
		log.Fatal(err)
	}

	serviceDIDStr := os.Getenv("STORACHA_SERVICE_DID")
	if serviceDIDStr == "" {
		serviceDIDStr = fmt.Sprintf("did:web:%s", defaultServiceName)
	}

	servicePrincipal, err := did.Parse(serviceDIDStr)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := client.NewConnection(servicePrincipal, serviceURL)
	if err != nil {
		log.Fatal(err)
	}

	return conn
}

func MustGetAccessChannel() *access.Channel {
	accessURLStr := os.Getenv("W3UP_ACCESS_URL")
	if accessURLStr == "" {
		accessURLStr = access.DefaultURL
	}

	accessURL, err := url.Parse(accessURLStr)
	if err != nil {
		log.Fatal(err)
	}

	return access.NewChannel(accessURL)
}

// MustGetClient assembles a client from the environment: persisted agent,
// service connection and access channel.
func MustGetClient() *w3up.Client {
	c, err := w3up.NewClient(
		MustGetAgent(),
		w3up.WithConnection(MustGetConnection()),
		w3up.WithAccessChannel(MustGetAccessChannel()),
	)
	if err != nil {
		log.Fatal(err)
	}
	return c
}

func MustParseDID(str string) did.DID {
	did, err := did.Parse(str)
	if err != nil {
		log.Fatalf("parsing DID: %s", err)
	}
	return did
}

func MustGetProof(path string) udelegation.Delegation {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("reading proof file: %s", err)
	}

	proof, err := cdg.ExtractProof(b)
	if err != nil {
		log.Fatalf("extracting proof: %s", err)
	}
	return proof
}
