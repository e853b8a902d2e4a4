package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/observability"
	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a draft file against the schema and every editor step",
	RunE:  runCheck,
}

var (
	checkInput  string
	checkStrict bool
)

func init() {
	checkCmd.Flags().StringVarP(&checkInput, "in", "i", "", "Path to draft JSON file (required)")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when any step is incomplete")
	_ = checkCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	printer := observability.NewPrinter(os.Stdout)

	d, err := readDraftFile(checkInput)
	if err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Messages() {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
		}
		return err
	}

	printer.PrintDraftSummary(&d, draft.Completion(d))
	results := stepResults(d)
	printer.PrintStepChecks(results)

	if failing := incompleteSteps(results); checkStrict && failing > 0 {
		return fmt.Errorf("%d steps incomplete", failing)
	}
	return nil
}

// stepResults validates d at every editor step.
func stepResults(d types.Draft) []observability.StepResult {
	steps := types.Steps()
	results := make([]observability.StepResult, 0, len(steps))
	for _, step := range steps {
		results = append(results, observability.StepResult{Step: step, Messages: draft.ValidateStep(step, d)})
	}
	return results
}

func incompleteSteps(results []observability.StepResult) int {
	n := 0
	for _, r := range results {
		if len(r.Messages) > 0 {
			n++
		}
	}
	return n
}
