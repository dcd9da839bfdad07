// Package cmd implements the command-line interface for pdfcrawl.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/pdfcrawl/cmd/crawl"
	"github.com/jonesrussell/pdfcrawl/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pdfcrawl",
	Short: "A focused web crawler that harvests and scores PDF documents",
	Long: `pdfcrawl walks the hyperlink graph from a seed URL, downloads the
PDF documents it finds, scores them against a keyword list and stores
the accepted ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env first so environment variables are visible to viper.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("PDFCRAWL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults(viper.GetViper())

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pdfcrawl version %s\n", version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
}
