// Package main is the entry point for the bqctl CLI binary.
package main

import (
	"os"

	_ "github.com/mattn/go-sqlite3"

	"bq-demo/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
