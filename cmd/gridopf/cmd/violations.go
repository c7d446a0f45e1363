package cmd

import (
	"github.com/spf13/cobra"

	"github.com/katalvlaran/gridopf/casefile"
	"github.com/katalvlaran/gridopf/opf"
)

var voltsPath string

// violationsCmd represents the violations command
var violationsCmd = &cobra.Command{
	Use:   "violations [case]",
	Short: "Evaluate given voltages against a case's limits",
	Long: `Compute voltage, injection and branch-limit violations for fixed bus
voltages without solving.

Voltages come from --volts, else from the voltsfilename setting, else from
the case's own Vm and Va when usevoltsolution is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runViolations,
}

func init() {
	violationsCmd.Flags().StringVar(&voltsPath, "volts", "", "voltage file (bus <id> M <vm> A <deg> lines)")
	violationsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to this .yaml or .json file")
	violationsCmd.Flags().StringVarP(&outputFormat, "format", "f", "yaml", "stdout format (yaml, json)")
}

func runViolations(cmd *cobra.Command, args []string) error {
	c, err := casefile.ReadCase(args[0])
	if err != nil {
		return err
	}
	s := *opts
	if voltsPath != "" {
		s.VoltsFilename = voltsPath
		s.UseVoltSolution = false
	}

	rep, err := opf.Violations(&s, c, opf.WithLogger(logger))
	if err != nil {
		return err
	}

	return emit(cmd, rep)
}
