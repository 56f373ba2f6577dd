package main

import (
	"github.com/Laisky/diagnostics-portal/cmd"
)

func main() {
	cmd.Execute()
}
