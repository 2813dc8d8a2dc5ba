package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	w3up "github.com/storacha/go-w3up-client"
	"github.com/storacha/go-w3up-client/cmd/util"
)

var spaceCommand = &cli.Command{
	Name:  "space",
	Usage: "Manage spaces known to the agent.",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Create a new space with a name.",
			ArgsUsage: "<name>",
			Action:    spaceCreate,
		},
		{
			Name:    "ls",
			Aliases: []string{"list"},
			Usage:   "List spaces known to the agent.",
			Action:  spaceLs,
		},
		{
			Name:      "use",
			Usage:     "Select the space subsequent commands target.",
			ArgsUsage: "<did>",
			Action:    spaceUse,
		},
		{
			Name:      "add",
			Usage:     "Import a space from a delegation archive.",
			ArgsUsage: "<proof.car>",
			Action:    spaceAdd,
		},
		{
			Name:      "register",
			Usage:     "Register the current space with the service. Blocks until the email address has been verified.",
			ArgsUsage: "<email>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "product",
					Value: w3up.DefaultProduct,
					Usage: "Product tier to register the space for.",
				},
			},
			Action: spaceRegister,
		},
	},
}

func spaceCreate(cCtx *cli.Context) error {
	name := cCtx.Args().First()
	if name == "" {
		return fmt.Errorf("missing space name")
	}

	c := util.MustGetClient()
	space, err := c.CreateSpace(name)
	if err != nil {
		return err
	}

	fmt.Println(space.DID())
	return nil
}

func spaceLs(cCtx *cli.Context) error {
	c := util.MustGetClient()

	var current string
	if cur, err := c.CurrentSpace(); err == nil {
		current = cur.DID().String()
	}

	for _, space := range c.Spaces() {
		marker := " "
		if space.DID().String() == current {
			marker = "*"
		}
		fmt.Printf("%s %s %s\n", marker, space.DID(), space.Name())
	}
	return nil
}

func spaceUse(cCtx *cli.Context) error {
	c := util.MustGetClient()
	return c.SetCurrentSpace(util.MustParseDID(cCtx.Args().First()))
}

func spaceAdd(cCtx *cli.Context) error {
	path := cCtx.Args().First()
	if path == "" {
		return fmt.Errorf("missing path to delegation archive")
	}

	c := util.MustGetClient()
	space, err := c.AddSpace(util.MustGetProof(path))
	if err != nil {
		return err
	}

	fmt.Println(space.DID())
	return nil
}

func spaceRegister(cCtx *cli.Context) error {
	email := cCtx.Args().First()
	if email == "" {
		return fmt.Errorf("missing email address")
	}

	c := util.MustGetClient()

	fmt.Fprintf(os.Stderr, "registering space, check %s for a verification email...\n", email)

	err := c.RegisterSpace(cCtx.Context, email, w3up.WithProduct(cCtx.String("product")))
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "space registered")
	return nil
}
