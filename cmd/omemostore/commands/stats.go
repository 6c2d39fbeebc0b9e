package commands

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"omemostore/internal/domain"
	"omemostore/internal/store"
)

type accountStats struct {
	account       domain.AccountName
	hasOwnDevice  bool
	signedPreKeys int
	preKeys       int
	contacts      int
	devices       int
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [account...]",
		Short: "Summarize every account store, or the named ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := make([]domain.AccountName, 0, len(args))
			for _, a := range args {
				accounts = append(accounts, domain.AccountName(a))
			}
			if len(accounts) == 0 {
				listed, err := wire.Accounts()
				if err != nil {
					return err
				}
				accounts = listed
			}

			stats := make([]accountStats, len(accounts))
			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, account := range accounts {
				g.Go(func() error {
					return withStore(account.String(), func(s *store.Store) error {
						data, err := load(s)
						if err != nil {
							return err
						}
						stats[i] = accountStats{
							account:       account,
							hasOwnDevice:  data.OwnDevice != nil,
							signedPreKeys: len(data.SignedPreKeyPairs),
							preKeys:       len(data.PreKeyPairs),
							contacts:      len(data.Devices),
							devices:       data.Devices.Count(),
						}
						return nil
					})
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tOWN DEVICE\tSIGNED PRE-KEYS\tPRE-KEYS\tCONTACTS\tDEVICES")
			for _, st := range stats {
				fmt.Fprintf(tw, "%s\t%t\t%d\t%d\t%d\t%d\n",
					st.account, st.hasOwnDevice, st.signedPreKeys, st.preKeys, st.contacts, st.devices)
			}
			return tw.Flush()
		},
	}
}
