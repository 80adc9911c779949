package main

import (
	"os"

	"toolbank/cli"
	"toolbank/config"
)

func main() {
	config.LoadEnv()
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
