package cli

import (
	"github.com/spf13/cobra"
)

func newIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity <wallet_id>",
		Short: "Look up the stored identity for a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Identity

			if err := client.Get("/api/v1/identities/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newIdentitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identities",
		Short: "List all stored wallet identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result IdentityList

			if err := client.Get("/api/v1/identities", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
