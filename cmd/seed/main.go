package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	sheet := flag.String("sheet", "", "sheet to read (defaults to the first sheet)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: seed [-y] [-sheet name] <products.xlsx>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, report, err := readProductsFromXLSX(filePath, *sheet)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Rows read: %d, skipped: %d, duplicates: %d\n", report.Rows, report.Skipped, report.Duplicates)
	fmt.Printf("Total products to import: %d\n", len(products))
	if len(products) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productService := service.NewProductService(repository.NewProductRepository(db.GetDB()))
	n, err := productService.ImportProducts(context.Background(), products)
	if err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", n)
}

// importReport counts data rows (header excluded) and what was dropped.
type importReport struct {
	Rows       int
	Skipped    int
	Duplicates int
}

var requiredColumns = []string{"title", "price"}

// readProductsFromXLSX maps columns by header name (case-insensitive):
// title, price, image, description, category. Rows without a title or with
// an unparseable or negative price are skipped; repeated title+category
// pairs keep the first row.
func readProductsFromXLSX(filePath, sheetName string) ([]model.Product, importReport, error) {
	var report importReport

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, report, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, report, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, report, errors.New("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, report, fmt.Errorf("missing required column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var products []model.Product
	seen := make(map[string]bool)

	for _, row := range rows[1:] {
		report.Rows++

		title := cell(row, "title")
		price, err := decimal.NewFromString(strings.TrimPrefix(cell(row, "price"), "$"))
		if title == "" || err != nil || price.IsNegative() {
			report.Skipped++
			continue
		}

		category := cell(row, "category")
		key := strings.ToLower(title) + "|" + strings.ToLower(category)
		if seen[key] {
			report.Duplicates++
			continue
		}
		seen[key] = true

		products = append(products, model.Product{
			Title:       title,
			Image:       cell(row, "image"),
			Description: cell(row, "description"),
			Price:       price.Round(2),
			Category:    category,
		})
	}

	return products, report, nil
}
