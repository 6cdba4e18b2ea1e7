package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shelfsight/matchengine/internal/usecases"
)

func newPreviewCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Parse a seller import CSV and show how each row would be ingested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer file.Close() //nolint:errcheck

			return runPreview(cmd.OutOrStdout(), file, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of accepted rows to display")

	return cmd
}

func openInput(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	return file, nil
}

func runPreview(out io.Writer, file io.Reader, limit int) error {
	parsed, err := usecases.ParseImportCSV(file, uuid.New(), time.Now().UTC(), uuid.New)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d rows accepted, %d rejected\n", len(parsed.Items), len(parsed.Rejected))

	shown := parsed.Items
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	if len(shown) > 0 {
		rows := make([][]string, 0, len(shown))
		for _, item := range shown {
			rows = append(rows, []string{
				strconv.Itoa(item.RowNumber),
				item.SKU,
				item.Barcode,
				item.Title,
				formatPrice(item.Price),
				formatQuantity(item.Quantity),
				formatPurchased(item.PurchasedAt),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Row", "SKU", "Barcode", "Title", "Price", "Qty", "Purchased"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	if len(parsed.Rejected) > 0 {
		rows := make([][]string, 0, len(parsed.Rejected))
		for _, rejected := range parsed.Rejected {
			rows = append(rows, []string{strconv.Itoa(rejected.RowNumber), rejected.Message})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Row", "Rejection"},
			rows,
			[]columnAlignment{alignRight, alignLeft},
		))
	}

	return nil
}

func formatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', 2, 64)
}

func formatQuantity(quantity *int) string {
	if quantity == nil {
		return ""
	}
	return strconv.Itoa(*quantity)
}

func formatPurchased(purchased *time.Time) string {
	if purchased == nil {
		return ""
	}
	return purchased.Format("2006-01-02")
}
