// Package main is the pointview command.
package main

import (
	"log"
	"os"

	"go.viam.com/pointview/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
