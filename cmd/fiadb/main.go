package main

import (
	"fmt"
	"os"

	"github.com/eleven-am/fiadb/internal/cli"
	"github.com/eleven-am/fiadb/pkg/fiadb"
)

// Set with -ldflags "-X main.commit=... -X main.date=..."
var (
	commit string
	date   string
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Execute() error {
	fiadb.SetBuildInfo(commit, date, "")
	return cli.NewRootCommand().Execute()
}
