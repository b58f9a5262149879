package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List stored recordings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := setupStore(a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("no recordings")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				elapsed, exit := "running", "-"
				if !s.FinishedAt.IsZero() {
					elapsed = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
					exit = strconv.Itoa(s.ExitCode)
				}
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.StartedAt.Local().Format(time.DateTime),
					elapsed,
					exit,
					strconv.Itoa(s.Lines),
					s.Command,
				})
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header(lo.ToAnySlice([]string{"ID", "STARTED", "ELAPSED", "EXIT", "LINES", "COMMAND"})...)
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		},
	}
}
