package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "Order history for the signed-in shopper",
	}
	rootCmd.AddCommand(ordersCmd)

	// list
	var listOutput string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your orders, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			orders, err := sess.Orders(cmd.Context())
			if err != nil {
				return err
			}
			if listOutput == "json" {
				return printJSON(orders)
			}
			if len(orders) == 0 {
				fmt.Println("no orders yet")
				return nil
			}
			for _, o := range orders {
				fmt.Println(orderSummary(o))
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&listOutput, "output", "", "output format")
	ordersCmd.AddCommand(listCmd)

	// get
	var getOutput string
	getCmd := &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one of your orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := sess.Order(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutput == "json" {
				return printJSON(o)
			}
			printOrder(o)
			return nil
		},
	}
	getCmd.Flags().StringVar(&getOutput, "output", "", "output format")
	ordersCmd.AddCommand(getCmd)
}
