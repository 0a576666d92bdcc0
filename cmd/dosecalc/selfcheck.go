package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
)

func newSelfCheckCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Run the reference scenarios against calibration profiles",
		Long: `selfcheck runs the reference dosing scenarios against the built-in
calibration and, with --calibration, every profile in a YAML file. It exits
non-zero when any profile drifts from the reference values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelfCheck(cmd.OutOrStdout(), path)
		},
	}
	cmd.Flags().StringVar(&path, "calibration", "", "YAML file with calibration profiles")
	return cmd
}

func runSelfCheck(out io.Writer, path string) error {
	profiles := []*calibration.Profile{calibration.DefaultProfile()}
	if path != "" {
		loaded, err := calibration.LoadFile(path)
		if err != nil {
			return err
		}
		profiles = append(profiles, loaded...)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROFILE\tCHECK\tEXPECTED\tACTUAL\tRESULT")

	var drifted []string
	for _, p := range profiles {
		report := dosing.SelfCheck(dosing.NewCalculator(p.Coefficients))
		for _, c := range report.Checks {
			result := "ok"
			if !c.Pass {
				result = "DRIFT"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				report.CalibrationVersion, c.Name,
				dosing.FormatGrams(c.Expected), dosing.FormatGrams(c.Actual), result)
		}
		if !report.Passed() {
			drifted = append(drifted, report.CalibrationVersion)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(drifted) > 0 {
		return fmt.Errorf("%d profile(s) drifted from reference values: %v", len(drifted), drifted)
	}
	return nil
}
