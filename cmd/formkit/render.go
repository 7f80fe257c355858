package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/page"
	"github.com/goliatone/go-formkit/pkg/render"
)

func renderCmd(a *app) *cobra.Command {
	var (
		file       string
		valuesFile string
		errorsFile string
		collection string
		templates  string
		fullPage   bool
		session    string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a form definition as HTML",
		Long: `Render the fields of a form definition as HTML.

Raw input values and an error payload keyed by field path can be supplied
to render a failed submission. With --page the fields are wrapped in the
page layout, including the form tag and the submit button.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := a.loadForm(cmd.Context(), file, session)
			if err != nil {
				return err
			}

			raw := map[string]any{}
			if valuesFile != "" {
				if err := readJSON(valuesFile, &raw); err != nil {
					return err
				}
			}
			m, err := input.Create(raw, nil)
			if err != nil {
				return err
			}

			var formErrors []string
			if errorsFile != "" {
				payload := map[string][]string{}
				if err := readJSON(errorsFile, &payload); err != nil {
					return err
				}
				formErrors = render.MapErrors(form.Paths(), payload).Apply(m)
			}

			var opts []render.Option
			if collection != "" {
				opts = append(opts, render.WithCollection(strings.Split(collection, ".")...))
			}

			if !fullPage {
				r := render.New(m, opts...)
				fmt.Fprint(cmd.OutOrStdout(), r.FormErrors(formErrors)+form.RenderFields(r))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}

			var pageOpts []page.Option
			if templates != "" {
				pageOpts = append(pageOpts, page.WithBaseDir(templates))
			}
			engine, err := page.New(pageOpts...)
			if err != nil {
				return err
			}
			return engine.Page(cmd.OutOrStdout(), page.View{
				Form:       form,
				Model:      m,
				FormErrors: formErrors,
				Locale:     a.cfg.Locale,
				Renderer:   opts,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "form definition (YAML or JSON)")
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON file with raw input values")
	cmd.Flags().StringVar(&errorsFile, "errors", "", "JSON file mapping field paths to messages")
	cmd.Flags().StringVar(&collection, "collection", "", "dotted name prefix, e.g. user.address")
	cmd.Flags().StringVar(&templates, "templates", "", "directory overriding the page templates")
	cmd.Flags().BoolVar(&fullPage, "page", false, "render the complete page layout")
	cmd.Flags().StringVar(&session, "session", "cli", "token session id")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
