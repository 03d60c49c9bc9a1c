// ecoctl エコリワードの運用ツール
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd ルートコマンドを作成
func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "ecoctl",
		Short:         "Operational tooling for the eco-rewards service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(newTripCmd())
	root.AddCommand(newCatalogCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
