package w3up_test

import (
	"context"
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	ucar "github.com/storacha/go-ucanto/core/car"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/core/ipld/block"
	"github.com/storacha/go-ucanto/core/ipld/hash/sha256"
	"github.com/stretchr/testify/require"

	w3up "github.com/storacha/go-w3up-client"
	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/client"
)

func randomRawBlock(t testing.TB, size int) ipld.Block {
	t.Helper()
	b := make([]byte, size)
	_, err := rand.Read(b)
	require.NoError(t, err)
	d, err := sha256.Hasher.Sum(b)
	require.NoError(t, err)
	return block.NewBlock(cidlink.Link{Cid: cid.NewCidV1(0x55, d.Bytes())}, b)
}

// randomCAR encodes a single-root CAR of random raw blocks. The first block
// is the root.
func randomCAR(t testing.TB, sizes ...int) (io.Reader, ipld.Link) {
	t.Helper()
	var blocks []ipld.Block
	for _, size := range sizes {
		blocks = append(blocks, randomRawBlock(t, size))
	}
	root := blocks[0].Link()
	return ucar.Encode([]ipld.Link{root}, func(yield func(ipld.Block, error) bool) {
		for _, b := range blocks {
			if !yield(b, nil) {
				return
			}
		}
	}), root
}

func uploadClient(t *testing.T, service w3up.Service) *w3up.Client {
	t.Helper()
	c, _ := newClient(t, service)
	space, err := c.CreateSpace("docs")
	require.NoError(t, err)
	require.NoError(t, c.SetCurrentSpace(space.DID()))
	return c
}

func TestUploadCAR(t *testing.T) {
	var stored []storeadd.Caveat
	var registered *uploadadd.Caveat

	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			stored = append(stored, nb)
			return &storeadd.Success{Status: "done", With: cfg.Space.String(), Link: nb.Link}, nil
		},
		uploadAdd: func(cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
			registered = &nb
			return &uploadadd.Success{Root: nb.Root, Shards: nb.Shards}, nil
		},
	}
	c := uploadClient(t, svc)

	car, root := randomCAR(t, 1000, 1000)

	got, err := c.UploadCAR(context.Background(), car)
	require.NoError(t, err)
	require.Equal(t, root.String(), got.String())

	require.Len(t, stored, 1)
	require.NotNil(t, registered)
	require.Equal(t, root.String(), registered.Root.String())
	require.Len(t, registered.Shards, 1)
	require.Equal(t, stored[0].Link.String(), registered.Shards[0].String())
}

func TestUploadCARShardCallbackOrder(t *testing.T) {
	// each event is "store", "callback" or "register"
	var events []string
	var storedLinks []ipld.Link
	var calledLinks []ipld.Link

	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			events = append(events, "store")
			storedLinks = append(storedLinks, nb.Link)
			return &storeadd.Success{Status: "done", Link: nb.Link}, nil
		},
		uploadAdd: func(cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
			events = append(events, "register")
			return &uploadadd.Success{Root: nb.Root, Shards: nb.Shards}, nil
		},
	}
	c := uploadClient(t, svc)

	car, _ := randomCAR(t, 4000, 4000)

	_, err := c.UploadCAR(context.Background(), car,
		w3up.WithShardSize(5000),
		w3up.WithShardStoredCallback(func(shard ipld.Link) {
			events = append(events, "callback")
			calledLinks = append(calledLinks, shard)
		}),
	)
	require.NoError(t, err)

	require.Equal(t, []string{"store", "callback", "store", "callback", "register"}, events)
	require.Equal(t, storedLinks, calledLinks)
}

func TestUploadCARTransfersShard(t *testing.T) {
	var received []byte
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		auth = r.Header.Get("Authorization")
		var err error
		received, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	}))
	defer srv.Close()

	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			url := srv.URL
			return &storeadd.Success{
				Status: "upload",
				Link:   nb.Link,
				Url:    &url,
				Headers: &storeadd.Headers{
					Keys:   []string{"Authorization"},
					Values: map[string]string{"Authorization": "Bearer token"},
				},
			}, nil
		},
		uploadAdd: func(cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
			return &uploadadd.Success{Root: nb.Root, Shards: nb.Shards}, nil
		},
	}
	c := uploadClient(t, svc)

	car, _ := randomCAR(t, 1000)

	_, err := c.UploadCAR(context.Background(), car)
	require.NoError(t, err)
	require.NotEmpty(t, received)
	require.Equal(t, "Bearer token", auth)
}

func TestUploadCARNoCurrentSpace(t *testing.T) {
	c, _ := newClient(t, &fakeService{})

	car, _ := randomCAR(t, 1000)

	_, err := c.UploadCAR(context.Background(), car)
	require.ErrorIs(t, err, w3up.ErrNoCurrentSpace)
}

func TestUploadCARUnauthorized(t *testing.T) {
	// proof sufficiency is not checked locally - the invocation is made and
	// the remote failure surfaces
	invoked := false
	name := "Unauthorized"

	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			invoked = true
			return nil, &client.RemoteError{Capability: storeadd.Ability, Name: name, Message: "claim is not authorized"}
		},
	}
	c := uploadClient(t, svc)

	car, _ := randomCAR(t, 1000)

	_, err := c.UploadCAR(context.Background(), car)
	require.True(t, invoked)

	var remote *client.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "Unauthorized", remote.Name)
}

func TestUploadFile(t *testing.T) {
	var registered *uploadadd.Caveat

	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			return &storeadd.Success{Status: "done", Link: nb.Link}, nil
		},
		uploadAdd: func(cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
			registered = &nb
			return &uploadadd.Success{Root: nb.Root, Shards: nb.Shards}, nil
		},
	}
	c := uploadClient(t, svc)

	fsys := fstest.MapFS{"hello.txt": &fstest.MapFile{Data: []byte("hello w3up")}}
	file, err := fsys.Open("hello.txt")
	require.NoError(t, err)

	root, err := c.UploadFile(context.Background(), file)
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Equal(t, root.String(), registered.Root.String())
	require.NotEmpty(t, registered.Shards)
}

func TestUploadDirectory(t *testing.T) {
	svc := &fakeService{
		storeAdd: func(cfg client.InvocationConfig, nb storeadd.Caveat) (*storeadd.Success, error) {
			return &storeadd.Success{Status: "done", Link: nb.Link}, nil
		},
		uploadAdd: func(cfg client.InvocationConfig, nb uploadadd.Caveat) (*uploadadd.Success, error) {
			return &uploadadd.Success{Root: nb.Root, Shards: nb.Shards}, nil
		},
	}
	c := uploadClient(t, svc)

	fsys := fstest.MapFS{
		"a.txt":     &fstest.MapFile{Data: []byte("aaa")},
		"sub/b.txt": &fstest.MapFile{Data: []byte("bbb")},
	}

	root, err := c.UploadDirectory(context.Background(), fsys)
	require.NoError(t, err)
	require.NotNil(t, root)
}

func TestListUploads(t *testing.T) {
	root := randomRawBlock(t, 100).Link()

	svc := &fakeService{
		uploadList: func(cfg client.InvocationConfig, nb uploadlist.Caveat) (*uploadlist.Success, error) {
			require.Equal(t, int64(10), nb.Size)
			return &uploadlist.Success{
				Results: []uploadlist.Item{{Root: root}},
				Size:    1,
			}, nil
		},
	}
	c := uploadClient(t, svc)

	page, err := c.ListUploads(context.Background(), uploadlist.Caveat{Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	require.Equal(t, root.String(), page.Results[0].Root.String())
}
