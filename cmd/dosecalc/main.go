// Package main provides dosecalc, a command line front end to the dosing
// calculator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dosecalc",
		Short: "Aquarium water chemistry dosing calculator",
		Long: `dosecalc computes gram doses for KH, GH and pH adjustment products
and classifies test-kit readings.

Examples:
  dosecalc calc --volume 40 --unit US --kh-current 3 --kh-target 5
  dosecalc calc --volume 200 --ammonia 0.5 --format json
  dosecalc calc --volume 120 --format csv > dosing-results.csv
  dosecalc selfcheck --calibration profiles.yaml
  dosecalc token --subject ops@example.com --role admin`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCalcCmd(), newSelfCheckCmd(), newTokenCmd())
	return root
}
