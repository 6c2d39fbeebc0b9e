package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"omemostore/internal/store"
)

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset <account>",
		Short: "Delete all OMEMO key material of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			return withStore(args[0], func(s *store.Store) error {
				if err := s.ResetAll().Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: reset\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
