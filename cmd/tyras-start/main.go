// Command tyras-start creates new TyRAS projects.
package main

import (
	"fmt"
	"os"

	"github.com/ty-ras/start/internal/cmd"
	"github.com/ty-ras/start/internal/output"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, output.ErrorStyle.Render(fmt.Sprintf("%s Error: %v", output.IconError, err)))
		os.Exit(1)
	}
}
