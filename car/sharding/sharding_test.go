package sharding_test

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/ipfs/go-cid"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/core/ipld/block"
	"github.com/storacha/go-ucanto/core/ipld/hash/sha256"
	"github.com/stretchr/testify/require"

	"github.com/storacha/go-w3up-client/car/sharding"
)

func randomRawBlock(t testing.TB, size int) ipld.Block {
	t.Helper()
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		t.Fatal(err)
	}
	d, err := sha256.Hasher.Sum(b)
	if err != nil {
		t.Fatal(err)
	}
	l := cidlink.Link{Cid: cid.NewCidV1(0x55, d.Bytes())}
	return block.NewBlock(l, b)
}

func blockIterator(blocks []ipld.Block) func(yield func(ipld.Block, error) bool) {
	return func(yield func(ipld.Block, error) bool) {
		for _, b := range blocks {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func TestSharding(t *testing.T) {
	var roots []ipld.Link
	blocks := []ipld.Block{
		randomRawBlock(t, 4000),
		randomRawBlock(t, 4000),
	}

	size := 5000

	shards, err := sharding.NewSharder(roots, blockIterator(blocks), sharding.WithShardSize(size))
	require.NoError(t, err)

	var shdbufs [][]byte
	for s, err := range shards {
		require.NoError(t, err)

		buf := new(bytes.Buffer)
		_, err = buf.ReadFrom(s)
		require.NoError(t, err)

		if len(buf.Bytes()) > size {
			t.Fatalf("shard was bigger than max size: %d > %d", len(buf.Bytes()), size)
		}

		shdbufs = append(shdbufs, buf.Bytes())
	}

	require.Len(t, shdbufs, 2, "unexpected number of shards: %d", len(shdbufs))
}

func TestShardingSingleShard(t *testing.T) {
	blocks := []ipld.Block{
		randomRawBlock(t, 1000),
		randomRawBlock(t, 1000),
	}

	shards, err := sharding.NewSharder(nil, blockIterator(blocks), sharding.WithShardSize(sharding.ShardSize))
	require.NoError(t, err)

	count := 0
	for s, err := range shards {
		require.NoError(t, err)

		// blocks are pulled as the shard is read, so it must be drained
		// before advancing
		_, err = io.ReadAll(s)
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 1, count)
}

func TestShardingBlockTooBig(t *testing.T) {
	blocks := []ipld.Block{randomRawBlock(t, 10_000)}

	shards, err := sharding.NewSharder(nil, blockIterator(blocks), sharding.WithShardSize(5000))
	require.NoError(t, err)

	// the oversize block surfaces as a read error on the shard that would
	// have contained it
	var shardErr error
	for s, err := range shards {
		require.NoError(t, err)

		if _, err := io.ReadAll(s); err != nil {
			shardErr = err
			break
		}
	}
	require.ErrorContains(t, shardErr, "exceed shard size")
}
