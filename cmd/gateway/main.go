package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Etendo workspace gateway",
	Long: `gateway sits between the workspace UI and Etendo Classic.

It serves cached window, tab and menu metadata, proxies datasource and
kernel calls, and keeps the classic session alive for each bearer token.
Configuration is read from the environment (and .env when present).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, warmCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
