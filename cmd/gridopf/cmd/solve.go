package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/gridopf/casefile"
	"github.com/katalvlaran/gridopf/opf"
	"github.com/katalvlaran/gridopf/solve"
)

var (
	outputPath   string
	outputFormat string
)

// solveCmd represents the solve command
var solveCmd = &cobra.Command{
	Use:   "solve [case]",
	Short: "Solve an optimal power flow",
	Long: `Build the formulation selected by the settings, solve it and print the
result record.

The case is a .m (MATPOWER), .yaml or .json file. Without --output the
result goes to stdout as YAML. An infeasible or unsolved case still prints
its result (success 0) and exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the result to this .yaml or .json file")
	solveCmd.Flags().StringVarP(&outputFormat, "format", "f", "yaml", "stdout format (yaml, json)")
}

func runSolve(cmd *cobra.Command, args []string) error {
	c, err := casefile.ReadCase(args[0])
	if err != nil {
		return err
	}

	res, err := opf.Solve(cmd.Context(), opts, c, opf.WithLogger(logger))
	var failure *solve.SolveFailure
	if err != nil && !errors.As(err, &failure) {
		return err
	}
	if werr := emit(cmd, res); werr != nil {
		return werr
	}

	return err
}

// emit writes v to --output, or to stdout in --format.
func emit(cmd *cobra.Command, v interface{}) error {
	if outputPath != "" {
		return casefile.WriteFile(outputPath, v)
	}
	format := casefile.FormatYAML
	switch outputFormat {
	case "yaml":
	case "json":
		format = casefile.FormatJSON
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	return casefile.Encode(cmd.OutOrStdout(), v, format)
}
