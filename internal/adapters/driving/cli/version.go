package cli

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags; module builds fall back to
// the version recorded by the Go toolchain.
var version = "dev"

func resolveVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("nextfind %s\n", resolveVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
