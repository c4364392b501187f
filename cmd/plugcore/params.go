package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plugcore/examples/simplesynth"
	"github.com/justyntemme/plugcore/pkg/framework/param"
)

func init() {
	rootCmd.AddCommand(paramsCmd)
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Lists the instrument's parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		synth := simplesynth.New()
		fmt.Fprintln(cmd.OutOrStdout(), synth.Info())

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDEFAULT\tRANGE\tFLAGS")
		for _, d := range synth.Catalog().All() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				d.ID, d.Name, d.FormatValue(d.DefaultValue), valueRange(d), flagNames(d))
		}
		return w.Flush()
	},
}

func valueRange(d *param.Descriptor) string {
	if labels := d.Labels(); len(labels) > 0 {
		return strings.Join(labels, "|")
	}
	return fmt.Sprintf("%s .. %s", d.FormatValue(0), d.FormatValue(1))
}

func flagNames(d *param.Descriptor) string {
	var names []string
	if d.Automatable() {
		names = append(names, "automate")
	}
	if d.Modulatable() {
		names = append(names, "modulate")
	}
	if d.Flags&param.IsReadOnly != 0 {
		names = append(names, "readonly")
	}
	if d.Stepped() {
		names = append(names, fmt.Sprintf("steps=%d", d.StepCount))
	}
	return strings.Join(names, ",")
}
