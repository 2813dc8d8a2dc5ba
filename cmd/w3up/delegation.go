package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	w3up "github.com/storacha/go-w3up-client"
	"github.com/storacha/go-w3up-client/capability"
	"github.com/storacha/go-w3up-client/cmd/util"
	cdg "github.com/storacha/go-w3up-client/delegation"
)

var delegationCommand = &cli.Command{
	Name:  "delegation",
	Usage: "Manage delegations issued by the agent.",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Delegate capabilities on the current space to another agent and write the archive to stdout or a file.",
			ArgsUsage: "<audience-did>",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  "can",
					Usage: "Capability to delegate. May be repeated.",
				},
				&cli.StringFlag{
					Name:  "name",
					Value: "",
					Usage: "Human readable name for the delegation.",
				},
				&cli.StringFlag{
					Name:  "type",
					Value: "",
					Usage: "Type of principal delegated to, e.g. \"device\", \"app\".",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "",
					Usage:   "Path to write the delegation archive to. Defaults to stdout.",
				},
			},
			Action: delegationCreate,
		},
		{
			Name:    "ls",
			Aliases: []string{"list"},
			Usage:   "List delegations issued by the agent.",
			Action:  delegationLs,
		},
	},
}

var proofCommand = &cli.Command{
	Name:  "proof",
	Usage: "Manage proofs of capabilities delegated to the agent.",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "Add a proof delegated to the agent.",
			ArgsUsage: "<proof.car>",
			Action:    proofAdd,
		},
		{
			Name:    "ls",
			Aliases: []string{"list"},
			Usage:   "List proofs of capabilities delegated to the agent.",
			Action:  proofLs,
		},
	},
}

func delegationCreate(cCtx *cli.Context) error {
	audience := util.MustParseDID(cCtx.Args().First())

	var abilities []capability.Ability
	for _, can := range cCtx.StringSlice("can") {
		ability := capability.Ability(can)
		if !ability.Valid() {
			return fmt.Errorf("unknown capability: %s", can)
		}
		abilities = append(abilities, ability)
	}
	if len(abilities) == 0 {
		abilities = []capability.Ability{capability.Top}
	}

	var options []w3up.DelegationOption
	if name := cCtx.String("name"); name != "" {
		options = append(options, w3up.WithDelegationName(name))
	}
	if typ := cCtx.String("type"); typ != "" {
		options = append(options, w3up.WithDelegationType(typ))
	}

	c := util.MustGetClient()
	dlg, err := c.CreateDelegation(audience, abilities, options...)
	if err != nil {
		return err
	}

	archive, err := cdg.Encode(dlg.Delegation)
	if err != nil {
		return err
	}

	if output := cCtx.String("output"); output != "" {
		return os.WriteFile(output, archive, 0600)
	}
	_, err = os.Stdout.Write(archive)
	return err
}

func delegationLs(cCtx *cli.Context) error {
	c := util.MustGetClient()
	for _, dlg := range c.Delegations() {
		fmt.Printf("%s\n", dlg.Link())
		fmt.Printf("\taudience: %s\n", dlg.Audience().DID())
		if dlg.Meta.Name != "" {
			fmt.Printf("\tname: %s\n", dlg.Meta.Name)
		}
		for _, cap := range dlg.Capabilities() {
			fmt.Printf("\t%s with %s\n", cap.Can(), cap.With())
		}
	}
	return nil
}

func proofAdd(cCtx *cli.Context) error {
	path := cCtx.Args().First()
	if path == "" {
		return fmt.Errorf("missing path to proof archive")
	}

	c := util.MustGetClient()
	return c.AddProof(util.MustGetProof(path))
}

func proofLs(cCtx *cli.Context) error {
	c := util.MustGetClient()
	for _, proof := range c.Proofs() {
		fmt.Printf("%s\n", proof.Link())
		fmt.Printf("\tissuer: %s\n", proof.Issuer().DID())
		for _, cap := range proof.Capabilities() {
			fmt.Printf("\t%s with %s\n", cap.Can(), cap.With())
		}
	}
	return nil
}
