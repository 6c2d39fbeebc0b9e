package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"omemostore/internal/store"
)

func removeDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-device <account> <jid> [device-id]",
		Short: "Forget one device of a contact, or all of them",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			jid := args[1]
			return withStore(args[0], func(s *store.Store) error {
				if len(args) == 2 {
					if err := s.RemoveDevices(jid).Err(); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed all devices of %s\n", jid)
					return nil
				}
				id, err := parseDeviceID(args[2])
				if err != nil {
					return err
				}
				if err := s.RemoveDevice(jid, id).Err(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed device %d of %s\n", id, jid)
				return nil
			})
		},
	}
}
