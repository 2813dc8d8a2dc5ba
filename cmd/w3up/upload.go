package main

import (
	"fmt"
	"os"

	"github.com/storacha/go-ucanto/core/ipld"
	"github.com/urfave/cli/v2"

	w3up "github.com/storacha/go-w3up-client"
	"github.com/storacha/go-w3up-client/capability/uploadlist"
	"github.com/storacha/go-w3up-client/cmd/util"
)

// selectSpace applies the --space and --proof flags before an operation.
func selectSpace(cCtx *cli.Context, c *w3up.Client) error {
	if p := cCtx.String("proof"); p != "" {
		if err := c.AddProof(util.MustGetProof(p)); err != nil {
			return err
		}
	}
	if s := cCtx.String("space"); s != "" {
		if err := c.SetCurrentSpace(util.MustParseDID(s)); err != nil {
			return err
		}
	}
	return nil
}

func up(cCtx *cli.Context) error {
	c := util.MustGetClient()
	if err := selectSpace(cCtx, c); err != nil {
		return err
	}

	var options []w3up.UploadOption
	if size := cCtx.Int("shard-size"); size > 0 {
		options = append(options, w3up.WithShardSize(size))
	}
	if cCtx.Bool("verbose") {
		options = append(options, w3up.WithShardStoredCallback(func(shard ipld.Link) {
			fmt.Fprintf(os.Stderr, "stored shard %s\n", shard)
		}))
	}

	var root ipld.Link
	var err error
	if carpath := cCtx.String("car"); carpath != "" {
		f, ferr := os.Open(carpath)
		if ferr != nil {
			return fmt.Errorf("opening CAR: %w", ferr)
		}
		defer f.Close()

		root, err = c.UploadCAR(cCtx.Context, f, options...)
	} else {
		target := cCtx.Args().First()
		if target == "" {
			return fmt.Errorf("missing path to upload")
		}

		stat, ferr := os.Stat(target)
		if ferr != nil {
			return fmt.Errorf("stat %s: %w", target, ferr)
		}

		if stat.IsDir() {
			root, err = c.UploadDirectory(cCtx.Context, os.DirFS(target), options...)
		} else {
			f, ferr := os.Open(target)
			if ferr != nil {
				return fmt.Errorf("opening file: %w", ferr)
			}
			defer f.Close()

			root, err = c.UploadFile(cCtx.Context, f, options...)
		}
	}
	if err != nil {
		return err
	}

	if cCtx.Bool("json") {
		fmt.Printf("{\"root\":\"%s\"}\n", root)
	} else {
		fmt.Printf("⁂ https://w3s.link/ipfs/%s\n", root)
	}

	return nil
}

func ls(cCtx *cli.Context) error {
	c := util.MustGetClient()
	if err := selectSpace(cCtx, c); err != nil {
		return err
	}

	for cursor := ""; ; {
		page, err := c.ListUploads(cCtx.Context, uploadlist.Caveat{Cursor: cursor})
		if err != nil {
			return err
		}

		for _, r := range page.Results {
			fmt.Printf("%s\n", r.Root)
			if cCtx.Bool("shards") {
				for _, s := range r.Shards {
					fmt.Printf("\t%s\n", s)
				}
			}
		}

		if page.Cursor == nil || *page.Cursor == "" || len(page.Results) == 0 {
			return nil
		}
		cursor = *page.Cursor
	}
}
