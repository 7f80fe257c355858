package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/openapi"
)

func openapiCmd(a *app) *cobra.Command {
	var (
		source    string
		operation string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Derive form definitions from an OpenAPI document",
		Long: `List the operations of an OpenAPI 3 document, or print the form
definition derived from the request body of one operation as YAML.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := openapi.LoadFile(cmd.Context(), source)
			if err != nil {
				return err
			}

			if operation == "" {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, op := range doc.Operations() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.ID, op.Method, op.Path, op.Summary)
				}
				return w.Flush()
			}

			def, err := doc.Definition(operation)
			if err != nil {
				return err
			}
			if def.Locale == "" {
				def.Locale = a.cfg.Locale
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(def); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "OpenAPI document path")
	cmd.Flags().StringVarP(&operation, "operation", "o", "", "operation id; lists operations when empty")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}
