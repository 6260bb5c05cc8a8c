package main

import (
	"fmt"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quantself/moodlab/dataset"
	"github.com/quantself/moodlab/decomposition"
)

var inspectData string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a diary and its wellbeing composite",
	Long: `inspect prints per-column statistics for a diary CSV and, when all
seven mood responses are present, the wellbeing composite's loadings and
explained variance.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := dataset.Load(inspectData, dataset.DefaultLoadOptions())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		first := d.Dates[0].Format("2006-01-02")
		last := d.Dates[d.Len()-1].Format("2006-01-02")
		fmt.Fprintf(out, "%s: %d rows from %s to %s\n\n", inspectData, d.Len(), first, last)

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "COLUMN\tMEAN\tSTD\tMIN\tMAX\tMISSING")
		for _, s := range d.Describe() {
			fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%d\n",
				s.Name, s.Mean, s.StdDev, s.Min, s.Max, s.Missing)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		w := decomposition.NewWellbeingIndex()
		if err := w.Fit(d); err != nil {
			fmt.Fprintf(out, "\nwellbeing composite unavailable: %v\n", err)
			return nil
		}
		loadings, err := w.Loadings()
		if err != nil {
			return err
		}
		ratio, err := w.ExplainedVarianceRatio()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "\nwellbeing composite explains %.1f%% of standardized mood variance\n", 100*ratio)
		names := make([]string, 0, len(loadings))
		for name := range loadings {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			ai, aj := math.Abs(loadings[names[i]]), math.Abs(loadings[names[j]])
			if ai != aj {
				return ai > aj
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			fmt.Fprintf(out, "  %-14s %+.3f\n", name, loadings[name])
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectData, "data", "", "diary CSV path")
	_ = inspectCmd.MarkFlagRequired("data")
}
