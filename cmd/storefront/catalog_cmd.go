package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/plantshop/internal/catalog"
	"github.com/fjod/plantshop/internal/money"
)

var catalogCategory string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the plant catalog",
	Long: `Prints the bundled plant catalog. With --category, only that category is
shown; an unknown category shows everything, as the storefront does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := catalog.Load()
		if err != nil {
			return err
		}
		return printCatalog(cmd.OutOrStdout(), c.ByCategory(catalogCategory), cfg.Checkout.Currency)
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogCategory, "category", "", "only show plants in this category")
}

func printCatalog(out io.Writer, plants []catalog.Plant, currency string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range plants {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money.Format(p.Price, currency), stock)
	}
	return tw.Flush()
}
