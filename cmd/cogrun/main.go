package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogrun/cogrun/internal/cli"
	"github.com/cogrun/cogrun/internal/greet"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, greet.ErrIdentityUnavailable) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
