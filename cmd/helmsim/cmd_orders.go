// cmd/helmsim/cmd_orders.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-helm/pkg/entity"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the orders the vessel accepts",
	RunE:  runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
}

func runOrders(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tTYPE\tEFFECT")
	for _, kind := range entity.AllOrderKinds() {
		switch {
		case kind.IsSpeed():
			fmt.Fprintf(w, "%s\tthrottle\t%.0f%% of max speed\n", kind, kind.SpeedFraction()*100)
		case kind.IsTurn():
			fmt.Fprintf(w, "%s\thelm\t%+.0f%% of max turn rate\n", kind, kind.TurnFraction()*100)
		}
	}
	return w.Flush()
}
