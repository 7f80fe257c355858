package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tokenCmd(a *app) *cobra.Command {
	var (
		name    string
		session string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and check CSRF tokens",
		Long: `Issue and check CSRF tokens against the configured store.

The memory store lives only as long as the process, so checking a token
issued by an earlier invocation needs the redis or sqlite store.`,
	}
	cmd.PersistentFlags().StringVar(&name, "name", "form", "logical form name")
	cmd.PersistentFlags().StringVar(&session, "session", "cli", "session id the token is bound to")

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Issue a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := a.tokenFactory()
			if err != nil {
				return err
			}
			issuer, err := factory.Issuer(cmd.Context(), session, cliFingerprint)
			if err != nil {
				return err
			}
			tok, err := issuer.CreateToken(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check TOKEN",
		Short: "Check and consume a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := a.tokenFactory()
			if err != nil {
				return err
			}
			issuer, err := factory.Issuer(cmd.Context(), session, cliFingerprint)
			if err != nil {
				return err
			}
			if !issuer.CheckToken(name, args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errInvalid
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	})

	return cmd
}
