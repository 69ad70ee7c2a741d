package cli

import (
	"fmt"
	"log"

	"certquiz-service/internal/bankbuild"
	"github.com/spf13/cobra"
)

// NewConvertCmd builds the question bank from the tabular source files.
func NewConvertCmd() *cobra.Command {
	var (
		inputDir string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert CSV question sources into the JSON question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := bankbuild.ConvertDir(inputDir)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions found in %s", inputDir)
			}
			if err := bankbuild.WriteBank(output, questions); err != nil {
				return err
			}
			log.Printf("converted %d questions to %s", len(questions), output)
			return nil
		},
	}
	cmd.Flags().StringVar(&inputDir, "input", "result", "directory containing source CSV files")
	cmd.Flags().StringVar(&output, "output", "data/questions.json", "path to the JSON bank to write")
	return cmd
}
