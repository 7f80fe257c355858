package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// report is the JSON result of validate and prompt.
type report struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Values map[string]any    `json:"values,omitempty"`
}

func validateCmd(a *app) *cobra.Command {
	var (
		file    string
		inFile  string
		session string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate JSON input against a form definition",
		Long: `Validate raw JSON input against a form definition and print a JSON
report. The command exits with status 1 when the input is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.loadForm(cmd.Context(), file, session)
			if err != nil {
				return err
			}
			raw := map[string]any{}
			if err := readJSON(inFile, &raw); err != nil {
				return err
			}
			m, err := input.Create(raw, nil)
			if err != nil {
				return err
			}

			valid, err := form.Validate(m, validation.WithLocale(a.cfg.Locale), validation.WithLogger(a.logger))
			if err != nil {
				return err
			}
			out := report{Valid: valid}
			if valid {
				if out.Values, err = form.Values(m); err != nil {
					return err
				}
			} else {
				out.Errors = m.Errors()
			}
			if err := writeJSON(cmd, out); err != nil {
				return err
			}
			if !valid {
				return errInvalid
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "form definition (YAML or JSON)")
	cmd.Flags().StringVarP(&inFile, "input", "i", "-", "JSON input file, - for stdin")
	cmd.Flags().StringVar(&session, "session", "cli", "token session id")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
