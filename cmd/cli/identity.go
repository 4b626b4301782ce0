package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentityCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print this client's anonymous session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := env.identityManager().GetOrCreate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(env.out, identity.Token)
			return nil
		},
	}
}
