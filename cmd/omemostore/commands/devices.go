package commands

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"omemostore/internal/store"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices <account> [jid]",
		Short: "List the devices stored for an account's contacts",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(args[0], func(s *store.Store) error {
				data, err := load(s)
				if err != nil {
					return err
				}
				jids := slices.Sorted(maps.Keys(data.Devices))
				if len(args) == 2 {
					if _, ok := data.Devices[args[1]]; !ok {
						return fmt.Errorf("no devices stored for %s", args[1])
					}
					jids = []string{args[1]}
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "JID\tDEVICE\tLABEL\tSESSION\tSENT\tRECEIVED\tREMOVED")
				for _, jid := range jids {
					cv := newContactView(jid, data.Devices[jid])
					for _, d := range cv.Devices {
						removed := d.Removed
						if removed == "" {
							removed = "-"
						}
						fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%d\t%d\t%s\n",
							jid, d.ID, d.Label, d.HasSession, d.UnrespondedSent, d.UnrespondedReceived, removed)
					}
				}
				return tw.Flush()
			})
		},
	}
}
