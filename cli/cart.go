package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"minimarket/domain"

	"github.com/spf13/cobra"
)

type cartView struct {
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"itemCount"`
	domain.Totals
}

func init() {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}
	rootCmd.AddCommand(cartCmd)

	// add
	var quantity int
	addCmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := sess.AddToCart(cmd.Context(), args[0], quantity)
			if err != nil {
				return err
			}
			slog.Debug("cart item added", "product_id", p.ID, "quantity", quantity)
			fmt.Printf("added %d %s %s (%d in cart)\n", quantity, p.Unit, p.Name, sess.Cart().ItemCount())
			return nil
		},
	}
	addCmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "quantity")
	cartCmd.AddCommand(addCmd)

	// update
	updateCmd := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number: %w", err)
			}
			sess.Cart().UpdateQuantity(cmd.Context(), args[0], qty)
			fmt.Printf("%d in cart\n", sess.Cart().ItemCount())
			return nil
		},
	}
	cartCmd.AddCommand(updateCmd)

	// remove
	removeCmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess.Cart().RemoveItem(cmd.Context(), args[0])
			fmt.Printf("%d in cart\n", sess.Cart().ItemCount())
			return nil
		},
	}
	cartCmd.AddCommand(removeCmd)

	// clear
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess.Cart().Clear(cmd.Context())
			fmt.Println("cart cleared")
			return nil
		},
	}
	cartCmd.AddCommand(clearCmd)

	// show
	var showOutput string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the cart and its totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := sess.Cart()
			totals, err := c.Totals()
			if err != nil {
				return err
			}
			lines := c.Lines()
			if showOutput == "json" {
				return printJSON(cartView{Lines: lines, ItemCount: c.ItemCount(), Totals: totals})
			}
			if len(lines) == 0 {
				fmt.Println("cart is empty")
				return nil
			}
			for _, l := range lines {
				fmt.Printf("%s | %s | %d %s @ %s\n", l.Product.ID, l.Product.Name, l.Quantity, l.Product.Unit, money(l.Product.Price))
			}
			printTotals(totals)
			return nil
		},
	}
	showCmd.Flags().StringVar(&showOutput, "output", "", "output format")
	cartCmd.AddCommand(showCmd)

	// checkout
	var checkoutOutput string
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			o, err := sess.Checkout(cmd.Context())
			if err != nil {
				if domain.IsOrderSubmissionFailedError(err) {
					slog.Error("checkout failed; cart kept for retry", "error", err)
				}
				return err
			}
			slog.Info("checkout complete", "order_id", o.ID, "duration_ms", time.Since(start).Milliseconds())
			if checkoutOutput == "json" {
				return printJSON(o)
			}
			printOrder(o)
			return nil
		},
	}
	checkoutCmd.Flags().StringVar(&checkoutOutput, "output", "", "output format")
	rootCmd.AddCommand(checkoutCmd)
}
