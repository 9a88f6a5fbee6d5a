package main

import (
	"os"

	"github.com/oksasatya/admin-user-profile/cmd/profilectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
