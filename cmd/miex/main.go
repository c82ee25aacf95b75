package main

import (
	"fmt"
	"os"

	"voxelexport.ai/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "miex:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
