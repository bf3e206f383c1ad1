package main

import (
	"os"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/cli"
)

func main() {
	os.Exit(cli.Execute())
}
