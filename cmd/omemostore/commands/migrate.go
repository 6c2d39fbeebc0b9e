package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"omemostore/internal/domain"
	"omemostore/internal/store"
)

func migrateCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "migrate [account...]",
		Short: "Rewrite record files in the configured format",
		Long: "Rewrite every record file of the given accounts in the format selected by\n" +
			"--format. Files are read in whichever format they are in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts := make([]domain.AccountName, 0, len(args))
			for _, a := range args {
				accounts = append(accounts, domain.AccountName(a))
			}
			if all {
				listed, err := wire.Accounts()
				if err != nil {
					return err
				}
				accounts = listed
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no accounts given; name them or pass --all")
			}

			for _, account := range accounts {
				err := withStore(account.String(), func(s *store.Store) error {
					return s.Migrate().Err()
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: rewritten as %s\n", account, cfg.Format)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "migrate every account below the root")
	return cmd
}
