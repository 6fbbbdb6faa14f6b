package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set with -ldflags at build time

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Industrie Import storefront",
	Long: `Storefront serves the Industrie Import shop pages, guards the user and
admin areas, and proxies the browser's API calls to the shop REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storefront version %s\n", version)
		},
	})
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRoutesCmd())
}

// Execute runs the root command. With no subcommand the server is started.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
