package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aquadose/aquadose/internal/api/models"
	"github.com/aquadose/aquadose/internal/calibration"
	"github.com/aquadose/aquadose/internal/dosing"
)

// Output formats of the calc command.
const (
	formatText = "text"
	formatJSON = "json"
	formatCSV  = "csv"
)

// errRejected is returned when the calculation refused the input. The
// field messages have already been printed.
var errRejected = errors.New("calculation rejected")

type calcOptions struct {
	req    dosing.Request
	unit   string
	locale string
	format string

	calibrationFile string
	profile         string

	ammonia, nitrite, nitrate, ghPPM, khPPM float64
}

func newCalcCmd() *cobra.Command {
	o := calcOptions{req: dosing.DefaultRequest()}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate doses for one tank",
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.readings(cmd)
			return runCalc(cmd.OutOrStdout(), cmd.ErrOrStderr(), o)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&o.req.Volume, "volume", o.req.Volume, "tank volume in --unit")
	f.StringVar(&o.unit, "unit", string(o.req.Unit), "volume unit: L, US or UK")
	f.Float64Var(&o.req.KHCurrent, "kh-current", o.req.KHCurrent, "current KH in dKH")
	f.Float64Var(&o.req.KHTarget, "kh-target", o.req.KHTarget, "target KH in dKH")
	f.Float64Var(&o.req.KHPurity, "purity", o.req.KHPurity, "KHCO3 purity as a fraction")
	f.Float64Var(&o.req.GHCurrent, "gh-current", o.req.GHCurrent, "current GH in dGH")
	f.Float64Var(&o.req.GHTarget, "gh-target", o.req.GHTarget, "target GH in dGH")
	f.Float64Var(&o.req.PHCurrent, "ph-current", o.req.PHCurrent, "current pH for the neutral regulator")
	f.Float64Var(&o.req.PHTarget, "ph-target", o.req.PHTarget, "target pH for the neutral regulator")
	f.Float64Var(&o.req.NRKH, "nr-kh", o.req.NRKH, "KH in dKH used to rate the neutral regulator")
	f.Float64Var(&o.req.AcidCurrentKH, "acid-current-kh", o.req.AcidCurrentKH, "current KH in dKH for the acid buffer")
	f.Float64Var(&o.req.AcidTargetKH, "acid-target-kh", o.req.AcidTargetKH, "target KH in dKH for the acid buffer")
	f.Float64Var(&o.req.PHGoldCurrent, "gold-ph-current", o.req.PHGoldCurrent, "current pH for the gold buffer")
	f.Float64Var(&o.req.PHGoldTarget, "gold-ph-target", o.req.PHGoldTarget, "target pH for the gold buffer")

	f.Float64Var(&o.ammonia, "ammonia", 0, "ammonia reading in ppm")
	f.Float64Var(&o.nitrite, "nitrite", 0, "nitrite reading in ppm")
	f.Float64Var(&o.nitrate, "nitrate", 0, "nitrate reading in ppm")
	f.Float64Var(&o.ghPPM, "gh-ppm", 0, "GH reading in ppm")
	f.Float64Var(&o.khPPM, "kh-ppm", 0, "KH reading in ppm")

	f.StringVar(&o.locale, "locale", string(dosing.DefaultLocale), "advice language: en or nl")
	f.StringVar(&o.format, "format", formatText, "output format: text, json or csv")
	f.StringVar(&o.calibrationFile, "calibration", "", "YAML file with calibration profiles")
	f.StringVar(&o.profile, "profile", "", "profile version from --calibration to use")

	return cmd
}

// readings keeps only the test-kit readings that were given on the command
// line so missing readings stay distinguishable from zero.
func (o *calcOptions) readings(cmd *cobra.Command) {
	set := func(name string, v float64) *float64 {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	o.req.Readings = dosing.TestKitReadings{
		Ammonia: set("ammonia", o.ammonia),
		Nitrite: set("nitrite", o.nitrite),
		Nitrate: set("nitrate", o.nitrate),
		GH:      set("gh-ppm", o.ghPPM),
		KH:      set("kh-ppm", o.khPPM),
	}
}

func runCalc(out, errOut io.Writer, o calcOptions) error {
	unit, ok := dosing.ParseUnit(o.unit)
	if !ok {
		return fmt.Errorf("unknown unit %q: must be one of L, US, UK", o.unit)
	}
	o.req.Unit = unit
	o.req.Locale = dosing.ParseLocale(o.locale, dosing.DefaultLocale)

	coef, err := loadCoefficients(o.calibrationFile, o.profile)
	if err != nil {
		return err
	}

	result := dosing.NewCalculator(coef).Calculate(o.req)

	switch o.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models.NewCalculateResponse(result)); err != nil {
			return err
		}
	case formatCSV:
		if result.Valid() {
			if err := dosing.WriteCSV(out, result, result.Locale); err != nil {
				return err
			}
		}
	case formatText:
		if err := writeText(out, result); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q: must be one of text, json, csv", o.format)
	}

	if !result.Valid() {
		for _, msg := range result.Errors {
			fmt.Fprintln(errOut, msg)
		}
		return errRejected
	}
	return nil
}

// loadCoefficients returns the built-in coefficients, or the named profile
// from a calibration file. With a single profile in the file the name may be
// omitted.
func loadCoefficients(path, version string) (dosing.Coefficients, error) {
	if path == "" {
		if version != "" && version != dosing.DefaultCoefficientsVersion {
			return dosing.Coefficients{}, fmt.Errorf("--profile %q requires --calibration", version)
		}
		return dosing.DefaultCoefficients(), nil
	}

	profiles, err := calibration.LoadFile(path)
	if err != nil {
		return dosing.Coefficients{}, err
	}
	if version == "" {
		if len(profiles) != 1 {
			return dosing.Coefficients{}, fmt.Errorf("%s holds %d profiles, choose one with --profile", path, len(profiles))
		}
		return profiles[0].Coefficients, nil
	}
	for _, p := range profiles {
		if p.Version == version {
			return p.Coefficients, nil
		}
	}
	return dosing.Coefficients{}, fmt.Errorf("profile %q not found in %s", version, path)
}

func writeText(out io.Writer, r *dosing.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Calibration\t%s\n", r.CalibrationVersion)
	if !r.Valid() {
		return tw.Flush()
	}

	fmt.Fprintf(tw, "Volume\t%s L\n", dosing.FormatGrams(r.Litres))
	fmt.Fprintln(tw)
	for _, p := range dosing.Products() {
		fmt.Fprintf(tw, "%s\t%s\n", dosing.Label(r, p, r.Locale), r.Advice(p))
	}

	if c := r.Parameters; c != nil {
		fmt.Fprintln(tw)
		statuses := c.Statuses()
		params := make([]string, 0, len(statuses))
		for p := range statuses {
			params = append(params, string(p))
		}
		sort.Strings(params)
		for _, p := range params {
			s := statuses[dosing.Parameter(p)]
			line := string(s.Status)
			if s.DegreeValue != nil {
				line += fmt.Sprintf(" (%.2f°)", *s.DegreeValue)
			}
			fmt.Fprintf(tw, "%s\t%s\n", strings.ToUpper(p), line)
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(tw)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(tw, "-\t%s\n", rec)
		}
	}

	return tw.Flush()
}
