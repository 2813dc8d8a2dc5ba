// Package adder builds unixfs DAGs from files and directories. It chunks
// file content, lays out balanced DAGs and assembles directories through an
// MFS root.
package adder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	gopath "path"
	"sync"

	chunker "github.com/ipfs/boxo/chunker"
	filestoreposinfo "github.com/ipfs/boxo/filestore/posinfo"
	"github.com/ipfs/boxo/ipld/merkledag"
	"github.com/ipfs/boxo/ipld/unixfs"
	balanced "github.com/ipfs/boxo/ipld/unixfs/importer/balanced"
	ihelper "github.com/ipfs/boxo/ipld/unixfs/importer/helpers"
	mfs "github.com/ipfs/boxo/mfs"
	cid "github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"

	w3fs "github.com/storacha/go-w3up-client/dag/fs"
)

const (
	DefaultChunkSize = "size-1048576" // 1MB chunks

	MaxLinks = 1048576

	UseRawLeaves = true

	LiveCacheSize = uint64(256 << 10) // 256KB
)

var (
	DefaultCidBuilder = merkledag.V1CidPrefix()

	ErrNilDAGService = errors.New("DAG service cannot be nil")

	ErrInvalidFile = errors.New("invalid file")

	ErrDirectoryNotReadable = errors.New("directory not readable")
)

type Adder struct {
	ctx        context.Context
	dagService ipld.DAGService
	mroot      *mfs.Root
	liveNodes  uint64
	mu         sync.Mutex
	cidBuilder cid.Builder
	options    AdderOptions
}

type AdderOptions struct {
	ChunkSize     string
	MaxLinks      int
	RawLeaves     bool
	CidBuilder    cid.Builder
	LiveCacheSize uint64
}

func DefaultAdderOptions() AdderOptions {
	return AdderOptions{
		ChunkSize:     DefaultChunkSize,
		MaxLinks:      MaxLinks,
		RawLeaves:     UseRawLeaves,
		CidBuilder:    DefaultCidBuilder,
		LiveCacheSize: LiveCacheSize,
	}
}

func NewAdder(ctx context.Context, dagService ipld.DAGService, opts ...func(*AdderOptions)) (*Adder, error) {
	if dagService == nil {
		return nil, ErrNilDAGService
	}

	options := DefaultAdderOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Adder{
		ctx:        ctx,
		dagService: dagService,
		options:    options,
		cidBuilder: options.CidBuilder,
	}, nil
}

func WithChunkSize(size string) func(*AdderOptions) {
	return func(o *AdderOptions) {
		o.ChunkSize = size
	}
}

func WithMaxLinks(maxLinks int) func(*AdderOptions) {
	return func(o *AdderOptions) {
		o.MaxLinks = maxLinks
	}
}

func WithRawLeaves(rawLeaves bool) func(*AdderOptions) {
	return func(o *AdderOptions) {
		o.RawLeaves = rawLeaves
	}
}

func WithCidBuilder(builder cid.Builder) func(*AdderOptions) {
	return func(o *AdderOptions) {
		o.CidBuilder = builder
	}
}

func WithLiveCacheSize(size uint64) func(*AdderOptions) {
	return func(o *AdderOptions) {
		o.LiveCacheSize = size
	}
}

// Add builds a DAG from the file, which may be a directory. When it is a
// directory, entries are read from the file itself if it supports that, or
// from fsys relative to dirname. Returns the CID of the DAG root.
func (adder *Adder) Add(file fs.File, dirname string, fsys fs.FS) (cid.Cid, error) {
	if file == nil {
		return cid.Undef, ErrInvalidFile
	}

	fileStat, err := file.Stat()
	if err != nil {
		return cid.Undef, fmt.Errorf("stat file: %w", err)
	}

	nd, err := adder.addAll(file, fileStat, dirname, fsys)
	if err != nil {
		return cid.Undef, fmt.Errorf("add all: %w", err)
	}

	return nd.Cid(), nil
}

func (adder *Adder) MfsRoot() (*mfs.Root, error) {
	adder.mu.Lock()
	defer adder.mu.Unlock()

	if adder.mroot != nil {
		return adder.mroot, nil
	}

	rnode := unixfs.EmptyDirNode()
	rnode.SetCidBuilder(adder.cidBuilder)

	mr, err := mfs.NewRoot(adder.ctx, adder.dagService, rnode, nil)
	if err != nil {
		return nil, fmt.Errorf("create MFS root: %w", err)
	}

	adder.mroot = mr
	return adder.mroot, nil
}

func (adder *Adder) add(reader io.Reader) (ipld.Node, error) {
	chunker, err := chunker.FromString(reader, adder.options.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	params := ihelper.DagBuilderParams{
		Dagserv:    adder.dagService,
		RawLeaves:  adder.options.RawLeaves,
		Maxlinks:   adder.options.MaxLinks,
		CidBuilder: adder.cidBuilder,
	}

	db, err := params.New(chunker)
	if err != nil {
		return nil, fmt.Errorf("create DAG builder: %w", err)
	}

	node, err := balanced.Layout(db)
	if err != nil {
		return nil, fmt.Errorf("build balanced layout: %w", err)
	}

	return node, nil
}

func (adder *Adder) addNode(node ipld.Node, path string) error {
	if path == "" {
		path = node.Cid().String()
	}

	if pi, ok := node.(*filestoreposinfo.FilestoreNode); ok {
		node = pi.Node
	}

	mr, err := adder.MfsRoot()
	if err != nil {
		return err
	}

	dir := gopath.Dir(path)
	if dir != "." {
		opts := mfs.MkdirOpts{
			Mkparents:  true,
			Flush:      false,
			CidBuilder: adder.cidBuilder,
		}

		if err := mfs.Mkdir(mr, dir, opts); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	if err := mfs.PutNode(mr, path, node); err != nil {
		return fmt.Errorf("put node at %s: %w", path, err)
	}

	return nil
}

func (adder *Adder) addAll(f fs.File, fi fs.FileInfo, dirname string, fsys fs.FS) (ipld.Node, error) {
	// the top level directory becomes the MFS root rather than an entry in it
	name := fi.Name()
	if fi.IsDir() {
		name = ""
	}

	if err := adder.addFileOrDir(name, f, fi, dirname, fsys, true); err != nil {
		return nil, fmt.Errorf("add file or directory: %w", err)
	}

	mr, err := adder.MfsRoot()
	if err != nil {
		return nil, fmt.Errorf("get MFS root: %w", err)
	}

	rootdir := mr.GetDirectory()

	if err = rootdir.Flush(); err != nil {
		return nil, fmt.Errorf("flush root directory: %w", err)
	}

	if err = mr.Close(); err != nil {
		return nil, fmt.Errorf("close MFS root: %w", err)
	}

	nd, err := rootdir.GetNode()
	if err != nil {
		return nil, fmt.Errorf("get root node: %w", err)
	}

	if err = adder.dagService.Add(adder.ctx, nd); err != nil {
		return nil, fmt.Errorf("add root node to DAG service: %w", err)
	}

	return nd, nil
}

func (adder *Adder) addFileOrDir(path string, f fs.File, fi fs.FileInfo, dirname string, fsys fs.FS, toplevel bool) error {
	defer f.Close()

	adder.mu.Lock()
	needsFlush := adder.liveNodes >= adder.options.LiveCacheSize
	adder.liveNodes++
	adder.mu.Unlock()

	if needsFlush {
		mr, err := adder.MfsRoot()
		if err != nil {
			return err
		}

		if err := mr.FlushMemFree(adder.ctx); err != nil {
			return fmt.Errorf("flush memory: %w", err)
		}

		adder.mu.Lock()
		adder.liveNodes = 0
		adder.mu.Unlock()
	}

	if fi.IsDir() {
		return adder.addDir(path, f, dirname, fsys, toplevel)
	}

	return adder.addFile(path, f)
}

func (adder *Adder) addFile(path string, f fs.File) error {
	dagnode, err := adder.add(f)
	if err != nil {
		return fmt.Errorf("add file content: %w", err)
	}

	return adder.addNode(dagnode, path)
}

func (adder *Adder) addDir(path string, dir fs.File, dirname string, fsys fs.FS, toplevel bool) error {
	if !(toplevel && path == "") {
		mr, err := adder.MfsRoot()
		if err != nil {
			return err
		}

		err = mfs.Mkdir(mr, path, mfs.MkdirOpts{
			Mkparents:  true,
			Flush:      false,
			CidBuilder: adder.cidBuilder,
		})

		if err != nil {
			return fmt.Errorf("mkdir %s: %w", path, err)
		}
	}

	var ents []fs.DirEntry
	var err error

	if d, ok := dir.(fs.ReadDirFile); ok {
		ents, err = d.ReadDir(0)
	} else if dfsys, ok := fsys.(fs.ReadDirFS); ok {
		ents, err = dfsys.ReadDir(gopath.Join(dirname, path))
	} else {
		return fmt.Errorf("%w: %s", ErrDirectoryNotReadable, gopath.Join(dirname, path))
	}

	if err != nil {
		return fmt.Errorf("reading directory %s: %w", gopath.Join(dirname, path), err)
	}

	for _, ent := range ents {
		var f fs.File

		// entries that can open themselves take precedence over fsys
		if ef, ok := ent.(w3fs.Opener); ok {
			f, err = ef.Open()
		} else if fsys != nil {
			f, err = fsys.Open(gopath.Join(dirname, path, ent.Name()))
		} else {
			err = fmt.Errorf("%w: no way to open %s", ErrInvalidFile, ent.Name())
		}

		if err != nil {
			return fmt.Errorf("opening file %s: %w", gopath.Join(dirname, path, ent.Name()), err)
		}

		fi, err := ent.Info()
		if err != nil {
			f.Close()
			return fmt.Errorf("get file info for %s: %w", ent.Name(), err)
		}

		entryPath := gopath.Join(path, ent.Name())
		if err = adder.addFileOrDir(entryPath, f, fi, dirname, fsys, false); err != nil {
			return fmt.Errorf("add entry %s: %w", entryPath, err)
		}
	}

	return nil
}

func (adder *Adder) Close() error {
	adder.mu.Lock()
	defer adder.mu.Unlock()

	if adder.mroot != nil {
		if err := adder.mroot.Close(); err != nil {
			return fmt.Errorf("close MFS root: %w", err)
		}
		adder.mroot = nil
	}

	return nil
}
