// Package sharding splits a stream of blocks into CAR files no bigger than
// a configured shard size, so that arbitrarily large DAGs can be stored as
// a series of bounded uploads.
package sharding

import (
	"fmt"
	"io"
	"iter"

	"github.com/multiformats/go-varint"
	"github.com/storacha/go-ucanto/core/car"
	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/storacha/go-ucanto/core/ipld/block"
	"github.com/storacha/go-ucanto/core/ipld/codec/cbor"
)

// https://observablehq.com/@gozala/w3up-shard-size
const ShardSize = 133_169_152

/** Byte length of a CBOR encoded CAR header with zero roots. */
const noRootsHeaderLen = 17

// Option is an option configuring a sharder.
type Option func(cfg *sharderConfig) error

type sharderConfig struct {
	shdsize int
}

// WithShardSize configures the size of the shards - default 133,169,152 bytes.
func WithShardSize(size int) Option {
	return func(cfg *sharderConfig) error {
		cfg.shdsize = size
		return nil
	}
}

// NewSharderFromCAR decodes a CAR file and shards its blocks. The roots of
// the source CAR become the roots of every shard.
func NewSharderFromCAR(reader io.Reader, options ...Option) (iter.Seq2[io.Reader, error], error) {
	roots, blocks, err := car.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decoding CAR: %w", err)
	}
	return NewSharder(roots, blocks, options...)
}

// NewSharder returns an iterator of CAR files, each no bigger than the
// configured shard size, containing the given blocks in their original
// order. Each yielded CAR must be read to completion before advancing the
// iterator - blocks are pulled from the source as the CAR is consumed, and
// a block that cannot fit in a shard surfaces as a read error on that
// shard.
func NewSharder(roots []ipld.Link, blocks iter.Seq2[ipld.Block, error], options ...Option) (iter.Seq2[io.Reader, error], error) {
	cfg := sharderConfig{shdsize: ShardSize}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	hdrlen, err := headerEncodingLength(roots)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}

	maxblklen := cfg.shdsize - hdrlen

	shards := func(yield func(io.Reader, error) bool) {
		nextBlk, stop := iter.Pull2(blocks)
		defer stop()

		nxt, err, ok := nextBlk()
		for {
			if !ok {
				return
			}

			if err != nil {
				yield(nil, err)
				return
			}

			shardBlocks := func(yield func(ipld.Block, error) bool) {
				clen := 0

				for {
					var blk ipld.Block
					if nxt != nil {
						blk = nxt
						nxt = nil
					} else {
						blk, err, ok = nextBlk()
						if !ok {
							return
						}

						if err != nil {
							yield(nil, err)
							return
						}
					}

					blklen := blockEncodingLength(blk)
					if blklen > maxblklen {
						yield(nil, fmt.Errorf("block will cause CAR to exceed shard size: %s", blk.Link()))
						return
					}

					if clen+blklen > maxblklen {
						nxt = blk
						return
					}

					clen += blklen
					if !yield(blk, nil) {
						return
					}
				}
			}

			if !yield(car.Encode(roots, shardBlocks), nil) {
				return
			}
		}
	}

	return shards, nil
}

type header struct {
	version uint64
	roots   []ipld.Link
}

func headerEncodingLength(roots []ipld.Link) (int, error) {
	if len(roots) == 0 {
		return noRootsHeaderLen, nil
	}

	b, err := cbor.Encode(&header{1, roots}, nil)
	if err != nil {
		return 0, err
	}

	hdlen := len(b)
	vilen := varint.UvarintSize(uint64(hdlen))
	return hdlen + vilen, nil
}

func blockEncodingLength(block block.Block) int {
	pllen := len(block.Link().Binary()) + len(block.Bytes())
	vilen := varint.UvarintSize(uint64(pllen))
	return pllen + vilen
}
