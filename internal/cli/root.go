// Package cli 定义 stressctl 的 Cobra 命令。
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stress-guru-go/pkg/log"
)

var (
	contentDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "stressctl",
	Short: "Offline stress self-assessment tools",
	Long: `stressctl runs the stress assessment chat in a terminal and
inspects the static assessment content (questions, keyword tiers,
severity bands) without any server dependencies.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.Init("debug", "console", "", log.Rotation{})
		}
	},
}

// Execute 运行根命令，由 main 调用。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&contentDir, "content", "configs/content", "Directory holding the assessment content JSON files")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print diagnostic logs to stdout")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(bandsCmd)
}
