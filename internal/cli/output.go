package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/unkn0wn-root/speccache/internal/demo"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOrders(w io.Writer, orders []*demo.Order) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTOTAL\tCUSTOMER\tCREATED")
	for _, o := range orders {
		cust := fmt.Sprint(o.CustomerID)
		if o.Customer != nil {
			cust = o.Customer.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.Status, o.Total.StringFixed(2), cust, o.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
