package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"minimarket/catalog"
	"minimarket/domain"
	"minimarket/util"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func parsePrice(flag, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}

func init() {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and manage the product catalog",
	}
	rootCmd.AddCommand(catalogCmd)

	// list
	var lCategory, lSearch, lMin, lMax, lSort, lOrder, lOutput string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.ListFilter{
				Category: lCategory,
				Search:   lSearch,
				SortBy:   lSort,
				Order:    lOrder,
			}
			if cmd.Flags().Changed("min-price") {
				d, err := parsePrice("min-price", lMin)
				if err != nil {
					return err
				}
				filter.MinPrice = &d
			}
			if cmd.Flags().Changed("max-price") {
				d, err := parsePrice("max-price", lMax)
				if err != nil {
					return err
				}
				filter.MaxPrice = &d
			}
			out, err := sess.Catalog().Browse(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if lOutput == "json" {
				return printJSON(out)
			}
			printProducts(out)
			return nil
		},
	}
	listCmd.Flags().StringVar(&lCategory, "category", "", "fruits, vegetables or all")
	listCmd.Flags().StringVar(&lSearch, "search", "", "match name or description")
	listCmd.Flags().StringVar(&lMin, "min-price", "", "min price")
	listCmd.Flags().StringVar(&lMax, "max-price", "", "max price")
	listCmd.Flags().StringVar(&lSort, "sort-by", "", "sort field: name|price|stock")
	listCmd.Flags().StringVar(&lOrder, "order", "asc", "sort order")
	listCmd.Flags().StringVar(&lOutput, "output", "", "output format")
	catalogCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get product by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := sess.Catalog().Product(cmd.Context(), args[0])
			if err != nil {
				if domain.IsProductNotFoundError(err) {
					fmt.Fprintln(os.Stderr, err)
					return nil
				}
				return err
			}
			return printJSON(p)
		},
	}
	catalogCmd.AddCommand(getCmd)

	// create
	var cID, cName, cCategory, cPrice, cImage, cDescription, cUnit string
	var cStock int
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cName == "" {
				return errors.New("name required")
			}
			price, err := parsePrice("price", cPrice)
			if err != nil {
				return err
			}
			id := cID
			if id == "" {
				id = util.GenerateUUID()
			}
			p := domain.Product{
				ID:          id,
				Name:        cName,
				Category:    domain.Category(cCategory),
				Price:       price,
				Image:       cImage,
				Description: cDescription,
				Stock:       cStock,
				Unit:        cUnit,
			}.WithDefaults()
			start := time.Now()
			if err := sess.Catalog().Create(cmd.Context(), p); err != nil {
				slog.Error("create failed", "product_id", id, "error", err)
				return err
			}
			slog.Info("product created", "product_id", id, "duration_ms", time.Since(start).Milliseconds())
			return printJSON(p)
		},
	}
	createCmd.Flags().StringVar(&cID, "id", "", "id (generated when empty)")
	createCmd.Flags().StringVar(&cName, "name", "", "name")
	createCmd.Flags().StringVar(&cCategory, "category", "", "fruits or vegetables")
	createCmd.Flags().StringVar(&cPrice, "price", "0", "price")
	createCmd.Flags().StringVar(&cImage, "image", "", "image url")
	createCmd.Flags().StringVar(&cDescription, "description", "", "description")
	createCmd.Flags().IntVar(&cStock, "stock", 0, "units in stock")
	createCmd.Flags().StringVar(&cUnit, "unit", domain.DefaultUnit, "unit label")
	catalogCmd.AddCommand(createCmd)

	// update
	var uName, uCategory, uPrice, uImage, uDescription, uUnit string
	var uStock int
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			p, err := sess.Catalog().Product(cmd.Context(), id)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				p.Name = uName
			}
			if cmd.Flags().Changed("category") {
				p.Category = domain.Category(uCategory)
			}
			if cmd.Flags().Changed("price") {
				if p.Price, err = parsePrice("price", uPrice); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("image") {
				p.Image = uImage
			}
			if cmd.Flags().Changed("description") {
				p.Description = uDescription
			}
			if cmd.Flags().Changed("stock") {
				p.Stock = uStock
			}
			if cmd.Flags().Changed("unit") {
				p.Unit = uUnit
			}

			if err := domain.ValidateProduct(p); err != nil {
				return err
			}

			start := time.Now()
			if err := sess.Catalog().Update(cmd.Context(), id, p); err != nil {
				slog.Error("update failed", "product_id", id, "error", err)
				return err
			}

			slog.Info(
				"product updated",
				"product_id", id,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return printJSON(p)
		},
	}
	updateCmd.Flags().StringVar(&uName, "name", "", "name")
	updateCmd.Flags().StringVar(&uCategory, "category", "", "fruits or vegetables")
	updateCmd.Flags().StringVar(&uPrice, "price", "", "price")
	updateCmd.Flags().StringVar(&uImage, "image", "", "image url")
	updateCmd.Flags().StringVar(&uDescription, "description", "", "description")
	updateCmd.Flags().IntVar(&uStock, "stock", 0, "units in stock")
	updateCmd.Flags().StringVar(&uUnit, "unit", "", "unit label")
	catalogCmd.AddCommand(updateCmd)

	// delete
	var force bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Printf("Delete %s? (y/N): ", args[0])
				var resp string
				if _, err := fmt.Scanln(&resp); err != nil || (resp != "y" && resp != "Y") {
					fmt.Println("aborted")
					return nil
				}
			}
			if err := sess.Catalog().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	catalogCmd.AddCommand(deleteCmd)

	// import
	var importFile, importFormat string
	importCmd := &cobra.Command{
		Use:   "import --file <file>",
		Short: "Import products from JSON, NDJSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if importFile == "" {
				return errors.New("--file required")
			}
			b, err := os.ReadFile(importFile)
			if err != nil {
				return err
			}
			format := catalog.Format(importFormat)
			if format == "" {
				format = catalog.FormatFromPath(importFile)
			}
			n, err := sess.Catalog().Import(cmd.Context(), b, format)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d products\n", n)
			return nil
		},
	}
	importCmd.Flags().StringVar(&importFile, "file", "", "input file")
	importCmd.Flags().StringVar(&importFormat, "format", "", "json|ndjson|yaml (default: from extension)")
	catalogCmd.AddCommand(importCmd)

	// export
	var exportFile, exportCategory, exportFormat string
	exportCmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export products to JSON, NDJSON or YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportFile == "" {
				return errors.New("--file required")
			}
			format := catalog.Format(exportFormat)
			if format == "" {
				format = catalog.FormatFromPath(exportFile)
			}
			b, err := sess.Catalog().Export(cmd.Context(), domain.ListFilter{Category: exportCategory}, format)
			if err != nil {
				return err
			}
			return os.WriteFile(exportFile, b, 0o644)
		},
	}
	exportCmd.Flags().StringVar(&exportFile, "file", "", "output file")
	exportCmd.Flags().StringVar(&exportCategory, "category", "", "category")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "json|ndjson|yaml (default: from extension)")
	catalogCmd.AddCommand(exportCmd)

	// seed
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := sess.Catalog().Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d products\n", n)
			return nil
		},
	}
	catalogCmd.AddCommand(seedCmd)
}
