package main

import (
	"github.com/bnema/shadowtab/internal/cli/cmd"
)

func main() {
	cmd.Execute()
}
