// Command sirsim simulates SIR epidemics from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/sirsim/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !(errors.As(err, &exitErr) && exitErr.Reported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
