package main

import (
	"fmt"

	forge "github.com/forgecode/forge"
)

// VersionCmd prints build/version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	fmt.Println(forge.GetVersion().String())
	return nil
}
