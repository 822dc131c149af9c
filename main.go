package main

import (
	"os"

	"github.com/cernauth/cernauth/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
