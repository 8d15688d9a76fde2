package main

import (
	"os"

	"smartbudget/cmd/smartbudget/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
