package w3up

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/multiformats/go-multihash"
	uclient "github.com/storacha/go-ucanto/client"
	"github.com/storacha/go-ucanto/core/car"
	"github.com/storacha/go-ucanto/core/ipld"

	"github.com/storacha/go-w3up-client/capability"
	"github.com/storacha/go-w3up-client/capability/storeadd"
	"github.com/storacha/go-w3up-client/capability/uploadadd"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/car/sharding"
	"github.com/storacha/go-w3up-client/client"
	"github.com/storacha/go-w3up-client/dag"
)

// carCodec is the multicodec code for CAR, used in shard CIDs.
const carCodec = 0x0202

// UploadOption configures an upload.
type UploadOption func(cfg *uploadConfig) error

type uploadConfig struct {
	conn          uclient.Connection
	shardOptions  []sharding.Option
	onShardStored func(ipld.Link)
}

// WithShardSize configures the maximum size of the CAR shards the upload is
// split into - default sharding.ShardSize.
func WithShardSize(size int) UploadOption {
	return func(cfg *uploadConfig) error {
		cfg.shardOptions = append(cfg.shardOptions, sharding.WithShardSize(size))
		return nil
	}
}

// WithShardStoredCallback registers a function called after each shard has
// been stored, with the shard's CID. Callbacks run on the uploading
// goroutine, in the order shards are produced, before the upload is
// registered.
func WithShardStoredCallback(fn func(shard ipld.Link)) UploadOption {
	return func(cfg *uploadConfig) error {
		cfg.onShardStored = fn
		return nil
	}
}

// WithUploadConnection overrides the connection this upload's invocations
// are executed on.
func WithUploadConnection(conn uclient.Connection) UploadOption {
	return func(cfg *uploadConfig) error {
		cfg.conn = conn
		return nil
	}
}

// UploadFile stores a file in the current space as UnixFS data and returns
// the root CID. The file is packed into a CAR, split into shards, each
// shard stored via store/add (and transferred when the service asks for the
// bytes), and finally the root is registered via upload/add.
func (c *Client) UploadFile(ctx context.Context, file fs.File, options ...UploadOption) (ipld.Link, error) {
	reader, _, err := dag.BuildFileCAR(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("packing file: %w", err)
	}
	return c.UploadCAR(ctx, reader, options...)
}

// UploadDirectory stores a directory tree in the current space as UnixFS
// data and returns the root CID of the directory.
func (c *Client) UploadDirectory(ctx context.Context, fsys fs.FS, options ...UploadOption) (ipld.Link, error) {
	reader, _, err := dag.BuildDirectoryCAR(ctx, fsys)
	if err != nil {
		return nil, fmt.Errorf("packing directory: %w", err)
	}
	return c.UploadCAR(ctx, reader, options...)
}

// UploadCAR stores the contents of a CAR file in the current space and
// registers the CAR's root as an upload. Shards are stored with empty root
// lists - the root travels only in the upload/add registration.
func (c *Client) UploadCAR(ctx context.Context, reader io.Reader, options ...UploadOption) (ipld.Link, error) {
	var cfg uploadConfig
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	icfg, err := c.invocationConfig(capability.StoreAdd, capability.UploadAdd)
	if err != nil {
		return nil, err
	}
	if cfg.conn != nil {
		icfg.Connection = cfg.conn
	}

	roots, blocks, err := car.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decoding CAR: %w", err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("missing root CID")
	}

	shards, err := sharding.NewSharder([]ipld.Link{}, blocks, cfg.shardOptions...)
	if err != nil {
		return nil, fmt.Errorf("sharding CAR: %w", err)
	}

	var shdlnks []ipld.Link
	for shard, err := range shards {
		if err != nil {
			return nil, fmt.Errorf("sharding CAR: %w", err)
		}

		link, err := c.storeShard(ctx, icfg, shard)
		if err != nil {
			return nil, err
		}

		shdlnks = append(shdlnks, link)
		if cfg.onShardStored != nil {
			cfg.onShardStored(link)
		}
	}

	rcpt, err := c.service.UploadAdd(ctx, icfg, uploadadd.Caveat{Root: roots[0], Shards: shdlnks})
	if err != nil {
		return nil, fmt.Errorf("registering upload: %w", err)
	}
	return rcpt.Root, nil
}

// storeShard stores one CAR shard, transferring the bytes when the service
// asks for them, and returns the shard's CID.
func (c *Client) storeShard(ctx context.Context, icfg client.InvocationConfig, shard io.Reader) (ipld.Link, error) {
	data, err := io.ReadAll(shard)
	if err != nil {
		return nil, fmt.Errorf("reading shard: %w", err)
	}

	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return nil, fmt.Errorf("hashing shard: %w", err)
	}
	link := cidlink.Link{Cid: cid.NewCidV1(carCodec, mh)}

	rcpt, err := c.service.StoreAdd(ctx, icfg, storeadd.Caveat{Link: link, Size: uint64(len(data))})
	if err != nil {
		return nil, fmt.Errorf("storing shard %s: %w", link, err)
	}

	if rcpt.Status == "upload" {
		if rcpt.Url == nil {
			return nil, fmt.Errorf("storing shard %s: missing upload URL", link)
		}
		if err := putShard(ctx, *rcpt.Url, rcpt.Headers, data); err != nil {
			return nil, fmt.Errorf("uploading shard %s: %w", link, err)
		}
	}

	log.Debugw("stored shard", "shard", link, "size", len(data), "status", rcpt.Status)
	return link, nil
}

func putShard(ctx context.Context, url string, headers *storeadd.Headers, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if headers != nil {
		for _, k := range headers.Keys {
			req.Header.Set(k, headers.Values[k])
		}
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("unexpected response status: %d", res.StatusCode)
	}
	return nil
}

// ListUploads returns a page of uploads registered in the current space.
// Pass the previous page's cursor in the caveat to continue listing.
func (c *Client) ListUploads(ctx context.Context, nb uploadlist.Caveat, options ...UploadOption) (*uploadlist.Success, error) {
	var cfg uploadConfig
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	icfg, err := c.invocationConfig(capability.UploadList)
	if err != nil {
		return nil, err
	}
	if cfg.conn != nil {
		icfg.Connection = cfg.conn
	}

	return c.service.UploadList(ctx, icfg, nb)
}
