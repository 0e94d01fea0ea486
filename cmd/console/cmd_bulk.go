package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/bulk"
	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/internal/console/view"
)

func (c *cli) bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply stock adjustments from a CSV file",
	}
	cmd.AddCommand(c.bulkTemplateCmd(), c.bulkUploadCmd())
	return cmd
}

func (c *cli) bulkTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "template",
		Short:       "Write an example CSV",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return bulk.WriteTemplate(c.out)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := bulk.WriteTemplate(f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func (c *cli) bulkUploadCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Validate a CSV and apply its adjustments as one batch",
		Long: `Validate a stock adjustment CSV and apply the valid rows as one batch.

Columns: item_id, item_name, quantity_delta, reason. quantity_delta is a signed
whole number; thousands separators are allowed. With --dry-run the file is only
validated and nothing is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinBulkUpload); err != nil {
				return err
			}
			styles := c.app.Styles()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			rows, err := bulk.Parse(f)
			_ = f.Close()
			if err != nil {
				fmt.Fprint(c.errOut, view.Banner(styles.Bad, "Parse error: "+err.Error()))
				return err
			}

			valid, invalid := bulk.Counts(rows)
			submitter := bulk.NewSubmitter(c.app.Client(), c.app.Logger())
			res, submitErr := submitter.Submit(cmd.Context(), rows, dryRun)

			c.printStatuses(bulk.Statuses(rows, res), styles)
			fmt.Fprintf(c.out, "%d rows: %d valid, %d invalid\n", len(rows), valid, invalid)

			switch {
			case submitErr != nil:
				fmt.Fprint(c.errOut, view.Banner(styles.Bad, res.Message))
				return errors.New("bulk adjustment failed")
			case res.DryRun:
				fmt.Fprint(c.out, view.Banner(styles.Muted, "Dry run: nothing was sent."))
			default:
				fmt.Fprint(c.out, view.Banner(styles.Good, fmt.Sprintf("Applied %d of %d adjustments.", res.Applied, res.Submitted)))
				if n := res.Unconfirmed(); n > 0 {
					fmt.Fprint(c.errOut, view.Banner(styles.Warn,
						fmt.Sprintf("%d adjustments were not confirmed by the API. Check item quantities.", n)))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only")
	return cmd
}

func (c *cli) printStatuses(statuses []bulk.RowStatus, styles view.Styles) {
	tbl := view.NewTable("", "ROW", "ITEM", "NAME", "DELTA", "REASON", "STATUS", "MESSAGE")
	for _, s := range statuses {
		tbl.AddRow(
			strconv.Itoa(s.Row.RowNumber),
			s.Row.ItemID,
			s.Row.ItemName,
			s.Delta(),
			s.Row.Reason,
			string(s.Status),
			s.Message,
		)
	}
	tbl.StyleRows(func(i int) (lipgloss.Style, bool) {
		switch statuses[i].Status {
		case bulk.StatusApplied:
			return styles.Good, true
		case bulk.StatusInvalid, bulk.StatusRejected:
			return styles.Bad, true
		case bulk.StatusSkipped, bulk.StatusNotApplied:
			return styles.Warn, true
		}
		return lipgloss.Style{}, false
	})
	fmt.Fprint(c.out, tbl.Render(styles))
}
