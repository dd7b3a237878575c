package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhi0395/redrock/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "redrock",
	Short: "Redshift fitting service",
	Long: "Redrock refines chi-squared redshift scans against spectral templates\n" +
		"and archetype libraries, serving fits over HTTP or from the command line.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fitCmd)
	rootCmd.Version = version.Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
