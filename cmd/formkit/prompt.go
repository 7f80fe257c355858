package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/prompt"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func promptCmd(a *app) *cobra.Command {
	var (
		file     string
		attempts int
	)

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill a form interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			def, err := formdef.Parse(data, file)
			if err != nil {
				return err
			}
			// Terminal answers cannot carry a CSRF token.
			def.Token = ""
			form, err := formdef.Build(def, formdef.WithCatalog(lang.Default()))
			if err != nil {
				return err
			}
			opts := []validation.Option{validation.WithLocale(a.cfg.Locale)}
			p := prompt.New(
				prompt.WithLogger(a.logger),
				prompt.WithValidation(opts...),
				prompt.WithMaxAttempts(attempts),
			)

			m := input.New()
			if err := p.Fill(cmd.Context(), form, m); err != nil {
				return err
			}
			valid, err := form.Validate(m, opts...)
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
	cmd.Flags().IntVar(&attempts, "attempts", 5, "questions per field before giving up, 0 for unlimited")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
