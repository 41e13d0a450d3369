package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"minimarket/domain"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// money renders an amount rounded to the display currency's standard precision.
// Amounts are exact everywhere else; this is the only place they are rounded.
func money(d decimal.Decimal) string {
	unit, err := currency.ParseISO(viper.GetString("currency"))
	if err != nil {
		unit = currency.USD
	}
	scale, _ := currency.Standard.Rounding(unit)
	rounded := d.Round(int32(scale))
	return printer.Sprint(currency.Symbol(unit.Amount(rounded.InexactFloat64())))
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printProducts(products []domain.Product) {
	for _, p := range products {
		fmt.Printf("%s | %s | %s | %s/%s | %d\n",
			p.ID, p.Name, p.Category, money(p.Price), p.Unit, p.Stock)
	}
}

func printTotals(t domain.Totals) {
	fmt.Printf("Subtotal: %s\n", money(t.Subtotal))
	fmt.Printf("Tax:      %s\n", money(t.Tax))
	if t.Discount.IsPositive() {
		fmt.Printf("Discount: -%s\n", money(t.Discount))
	}
	fmt.Printf("Total:    %s\n", money(t.Total))
}

func printOrder(o domain.Order) {
	fmt.Printf("Order %s (%s) placed %s\n", o.ID, o.Status, o.CreatedAt.Local().Format("2006-01-02 15:04"))
	for _, l := range o.Lines {
		lineTotal := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		fmt.Printf("  %d x %s @ %s = %s\n", l.Quantity, l.Name, money(l.Price), money(lineTotal))
	}
	printTotals(o.Totals)
}

func orderSummary(o domain.Order) string {
	items := 0
	for _, l := range o.Lines {
		items += l.Quantity
	}
	return strings.Join([]string{
		o.ID,
		o.CreatedAt.Local().Format("2006-01-02 15:04"),
		string(o.Status),
		fmt.Sprintf("%d items", items),
		money(o.Total),
	}, " | ")
}
