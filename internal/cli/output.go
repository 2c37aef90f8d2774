package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dukerupert/listkeeper/internal/grocery"
	"github.com/dukerupert/listkeeper/internal/model"
)

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return money(*v)
}

func printLists(w io.Writer, lists []model.ShoppingList) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS\tTOTAL\tBUDGET\tDONE")
	for _, l := range lists {
		done := ""
		if l.Completed {
			done = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", l.ID, l.Name, len(l.Items), money(l.Total), optMoney(l.Budget), done)
	}
	tw.Flush()
}

// printList writes a list header followed by its items grouped by section.
func printList(w io.Writer, l model.ShoppingList) {
	fmt.Fprintf(w, "%s  (%s)\n", l.Name, l.ID)
	fmt.Fprintf(w, "Total: %s", money(l.Total))
	if l.Budget != nil {
		fmt.Fprintf(w, "  Budget: %s  Remaining: %s", money(*l.Budget), optMoney(l.Remaining()))
		if l.OverBudget() {
			fmt.Fprint(w, "  OVER BUDGET")
		}
	}
	fmt.Fprintf(w, "  Checked: %d/%d  Version: %d\n", l.CheckedCount(), len(l.Items), l.Version)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range grocery.GroupByCategory(l.Items) {
		fmt.Fprintf(tw, "\n[%s]\t\t\t%s\n", s.Category.Name, money(s.Total))
		for _, it := range s.Items {
			mark := "[ ]"
			if it.Checked {
				mark = "[x]"
			}
			fmt.Fprintf(tw, "%s %s\t%d %s\t%s\t%s\n", mark, it.Name, it.Quantity, it.Unit, optMoney(it.Price), it.ID)
		}
	}
	tw.Flush()
}

func printItems(w io.Writer, items []model.Item) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tCATEGORY\tPRICE\tCHECKED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d %s\t%s\t%s\t%t\n", it.ID, it.Name, it.Quantity, it.Unit, it.Category, optMoney(it.Price), it.Checked)
	}
	tw.Flush()
}
