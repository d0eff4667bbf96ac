package main

import (
	"os"

	"github.com/karlivory/SiGa/cmd/cert"
	"github.com/karlivory/SiGa/cmd/server"
	"github.com/karlivory/SiGa/cmd/sessions"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "siga",
		Short: "Session-scoped digital signature container gateway",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	root.AddCommand(
		server.New(),
		cert.New(),
		sessions.New(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
