package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/botdeckhq/botdeck/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "botdeck",
		Short:         "Slash-command bot platform for chat rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Info())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
