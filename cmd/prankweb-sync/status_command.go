package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"prankweb-sync/internal/registry"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var byStatus string
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the registry watermark and per-status entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFlag)
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg.Paths.DataDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			watermark := store.LastSynchronization()
			if watermark == "" {
				watermark = "(never)"
			}
			fmt.Fprintf(out, "Registry: %s\n", store.Path())
			fmt.Fprintf(out, "Last synchronization: %s\n", watermark)
			fmt.Fprintf(out, "Entries: %d\n\n", store.Len())

			counts := store.CountByStatus()
			countRows := make([][]string, 0, len(counts))
			for _, status := range registry.AllStatuses() {
				if counts[status] == 0 {
					continue
				}
				countRows = append(countRows, []string{string(status), strconv.Itoa(counts[status])})
			}
			if len(countRows) > 0 {
				fmt.Fprintln(out, renderTable(out,
					[]string{"Status", "Count"},
					countRows,
					[]columnAlignment{alignLeft, alignRight},
				))
			}

			if byStatus == "" {
				return nil
			}
			status, ok := registry.ParseStatus(byStatus)
			if !ok {
				return fmt.Errorf("unknown status %q", byStatus)
			}
			entryRows := make([][]string, 0, limit)
			for _, code := range store.CodesWithStatus(status) {
				if limit > 0 && len(entryRows) >= limit {
					break
				}
				entry, _ := store.Get(code)
				entryRows = append(entryRows, []string{
					entry.Code,
					entry.PDBReleaseDate,
					entry.PrankwebCheckDate,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Code", "PDB release", "Last check"},
				entryRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&byStatus, "with-status", "", "List entries currently in the given status")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to list (0 for all)")

	return cmd
}
