// Package dag turns files and directories into CAR encoded unixfs DAGs
// ready for sharding and storage.
package dag

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/ipfs/boxo/blockservice"
	blockstore "github.com/ipfs/boxo/blockstore"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	gocar "github.com/ipld/go-car"

	"github.com/storacha/go-w3up-client/dag/adder"
)

// BuildFileCAR builds a CAR containing the unixfs DAG of a single file,
// wrapped in a directory that preserves its name.
func BuildFileCAR(ctx context.Context, file fs.File, opts ...func(*adder.AdderOptions)) (io.Reader, cid.Cid, error) {
	return BuildCAR(ctx, file, "", nil, opts...)
}

// BuildDirectoryCAR builds a CAR containing one unixfs DAG for the whole
// filesystem, preserving relative paths.
func BuildDirectoryCAR(ctx context.Context, fsys fs.FS, opts ...func(*adder.AdderOptions)) (io.Reader, cid.Cid, error) {
	root, err := fsys.Open(".")
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("opening filesystem root: %w", err)
	}
	return BuildCAR(ctx, root, ".", fsys, opts...)
}

// BuildCAR builds a unixfs DAG from the file (or directory) and encodes all
// of its blocks into a CARv1 with the DAG root as the only root.
func BuildCAR(ctx context.Context, file fs.File, dirname string, fsys fs.FS, opts ...func(*adder.AdderOptions)) (io.Reader, cid.Cid, error) {
	ds := datastore.NewMapDatastore()
	bs := blockstore.NewBlockstore(dssync.MutexWrap(ds))
	bserv := blockservice.New(bs, nil)
	dagService := merkledag.NewDAGService(bserv)

	add, err := adder.NewAdder(ctx, dagService, opts...)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("creating adder: %w", err)
	}
	defer add.Close()

	rootCid, err := add.Add(file, dirname, fsys)
	if err != nil {
		return nil, cid.Undef, fmt.Errorf("adding to DAG: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := gocar.WriteCar(ctx, dagService, []cid.Cid{rootCid}, buf); err != nil {
		return nil, cid.Undef, fmt.Errorf("writing CAR: %w", err)
	}

	return buf, rootCid, nil
}
