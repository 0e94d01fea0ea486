package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/stockroom/internal/console/bulk"
	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/internal/console/view"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

// Transaction reasons used by single item commands.
const (
	reasonManual = "manual"
	reasonInit   = "init"
)

func (c *cli) itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List and edit inventory items",
	}
	cmd.AddCommand(
		c.itemsListCmd(),
		c.itemsCreateCmd(),
		c.itemsUpdateCmd(),
		c.itemsDeleteCmd(),
		c.itemsAdjustCmd(),
	)
	return cmd
}

func (c *cli) itemsListCmd() *cobra.Command {
	var lowOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items with their stock levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.Viewer); err != nil {
				return err
			}
			items, err := c.app.Client().ListItems(cmd.Context())
			if err != nil {
				return err
			}

			tbl := view.NewTable("Items", "ID", "NAME", "CATEGORY", "QTY", "THRESHOLD", "PRICE")
			var low []bool
			for _, it := range items {
				if lowOnly && !it.LowStock() {
					continue
				}
				category := ""
				if it.Category != nil {
					category = it.Category.Name
				}
				tbl.AddRow(
					strconv.FormatInt(it.ID, 10),
					it.Name,
					category,
					strconv.Itoa(it.Quantity),
					strconv.Itoa(it.LowStockThreshold),
					it.Price.String(),
				)
				low = append(low, it.LowStock())
			}
			styles := c.app.Styles()
			tbl.StyleRows(func(i int) (lipgloss.Style, bool) { return styles.Warn, low[i] })

			if len(tbl.Rows) == 0 {
				fmt.Fprintln(c.out, "No items")
				return nil
			}
			fmt.Fprint(c.out, tbl.Render(styles))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lowOnly, "low", false, "Only items at or below their low stock threshold")
	return cmd
}

// itemFlags binds the write fields shared by create and update.
type itemFlags struct {
	name      string
	price     string
	category  int64
	threshold int
}

func (f *itemFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Item name")
	cmd.Flags().StringVar(&f.price, "price", "", "Unit price, e.g. 19.99")
	cmd.Flags().Int64Var(&f.category, "category", 0, "Category id")
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "Low stock threshold")
}

// apply overlays the flags the operator set onto w.
func (f *itemFlags) apply(cmd *cobra.Command, w *invsdk.ItemWrite) {
	if cmd.Flags().Changed("name") {
		w.Name = f.name
	}
	if cmd.Flags().Changed("price") {
		w.Price = f.price
	}
	if cmd.Flags().Changed("category") {
		w.CategoryID = f.category
	}
	if cmd.Flags().Changed("threshold") {
		w.LowStockThreshold = f.threshold
	}
}

func (c *cli) itemsCreateCmd() *cobra.Command {
	var (
		fields   itemFlags
		quantity string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item, optionally with opening stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinItemWrite); err != nil {
				return err
			}

			opening := 0
			if quantity != "" {
				n, ok := bulk.ParseDelta(quantity)
				if !ok || n < 0 {
					return fmt.Errorf("invalid quantity %q", quantity)
				}
				opening = n
			}

			var w invsdk.ItemWrite
			fields.apply(cmd, &w)
			item, err := c.app.Client().CreateItem(cmd.Context(), w)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created item %d (%s)\n", item.ID, item.Name)

			if opening > 0 {
				_, err := c.app.Client().AdjustStock(cmd.Context(), item.ID, invsdk.AdjustStockRequest{
					Delta:  opening,
					Note:   "opening stock",
					Reason: reasonInit,
				})
				if err != nil {
					return fmt.Errorf("item created but opening stock failed: %w", err)
				}
				fmt.Fprintf(c.out, "Opening stock %d\n", opening)
			}
			return nil
		},
	}
	fields.bind(cmd)
	cmd.Flags().StringVar(&quantity, "quantity", "", "Opening stock")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (c *cli) itemsUpdateCmd() *cobra.Command {
	var fields itemFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an item's name, price, category or threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinItemWrite); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			current, err := c.app.Client().GetItem(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := invsdk.ItemWrite{
				Name:              current.Name,
				Price:             current.Price.String(),
				LowStockThreshold: current.LowStockThreshold,
			}
			if current.Category != nil {
				w.CategoryID = current.Category.ID
			}
			fields.apply(cmd, &w)

			item, err := c.app.Client().UpdateItem(cmd.Context(), id, w)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Updated item %d (%s)\n", item.ID, item.Name)
			return nil
		},
	}
	fields.bind(cmd)
	return cmd
}

func (c *cli) itemsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinItemWrite); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.app.Client().DeleteItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted item %d\n", id)
			return nil
		},
	}
}

func (c *cli) itemsAdjustCmd() *cobra.Command {
	var delta, note, reason string

	cmd := &cobra.Command{
		Use:   "adjust ID",
		Short: "Record a stock movement for one item",
		Example: `  stockroom items adjust 6 --delta +5 --note "delivery"
  stockroom items adjust 6 --delta -2 --reason damaged`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.MinItemWrite); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, ok := bulk.ParseDelta(delta)
			if !ok || n == 0 {
				return fmt.Errorf("invalid delta %q: want a non-zero whole number", delta)
			}

			tx, err := c.app.Client().AdjustStock(cmd.Context(), id, invsdk.AdjustStockRequest{
				Delta:  n,
				Note:   note,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Recorded %+d for item %d (transaction %d)\n", tx.Delta, id, tx.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&delta, "delta", "", "Signed quantity change, e.g. +5 or -2")
	cmd.Flags().StringVar(&note, "note", "", "Free text note")
	cmd.Flags().StringVar(&reason, "reason", reasonManual, "Transaction reason")
	_ = cmd.MarkFlagRequired("delta")
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List item categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.app.Require(roles.Viewer); err != nil {
				return err
			}
			cats, err := c.app.Client().ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			tbl := view.NewTable("Categories", "ID", "NAME")
			for _, cat := range cats {
				tbl.AddRow(strconv.FormatInt(cat.ID, 10), cat.Name)
			}
			fmt.Fprint(c.out, tbl.Render(c.app.Styles()))
			return nil
		},
	}
}
