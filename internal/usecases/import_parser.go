package usecases

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
)

// RowError is one rejected import row. The rest of the file is unaffected.
type RowError struct {
	RowNumber int
	Message   string
}

// ParsedImport is the outcome of parsing one import CSV: the usable rows
// plus the individually rejected ones.
type ParsedImport struct {
	Items    []domain.RawImportItem
	Rejected []RowError
}

// Recognized header spellings, all matched case-insensitively after
// trimming. Real seller exports disagree on almost everything.
var (
	skuHeaders       = []string{"sku", "item_sku", "product_sku", "seller_sku"}
	barcodeHeaders   = []string{"barcode", "ean", "upc", "gtin", "ean13"}
	titleHeaders     = []string{"title", "name", "product_name", "product_title"}
	priceHeaders     = []string{"price", "unit_price", "purchase_price", "cost"}
	quantityHeaders  = []string{"quantity", "qty", "stock", "units"}
	purchasedHeaders = []string{"purchased_at", "purchase_date", "order_date", "date"}
)

// ParseImportCSV reads a header-mapped CSV into raw import rows. Malformed
// rows are rejected individually and reported; only an unreadable file or an
// unusable header fails the whole parse.
func ParseImportCSV(r io.Reader, batchID uuid.UUID, now time.Time, newID func() uuid.UUID) (ParsedImport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ParsedImport{}, domain.NewValidationErr("import file has no header row")
	}

	columns := mapHeader(header)
	if _, ok := columns["sku"]; !ok {
		if _, ok := columns["barcode"]; !ok {
			if _, ok := columns["title"]; !ok {
				return ParsedImport{}, domain.NewValidationErr("import header has no sku, barcode or title column")
			}
		}
	}

	var parsed ParsedImport
	rowNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			parsed.Rejected = append(parsed.Rejected, RowError{rowNumber, fmt.Sprintf("unreadable row: %v", err)})
			continue
		}

		item, rowErr := parseRow(record, header, columns, rowNumber)
		if rowErr != "" {
			parsed.Rejected = append(parsed.Rejected, RowError{rowNumber, rowErr})
			continue
		}

		item.ID = newID()
		item.BatchID = batchID
		item.CreatedAt = now
		parsed.Items = append(parsed.Items, item)
	}

	return parsed, nil
}

// mapHeader resolves each known field to its column index, first spelling wins.
func mapHeader(header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	columns := map[string]int{}
	assign := func(field string, spellings []string) {
		for _, s := range spellings {
			for i, h := range normalized {
				if h == s {
					columns[field] = i
					return
				}
			}
		}
	}
	assign("sku", skuHeaders)
	assign("barcode", barcodeHeaders)
	assign("title", titleHeaders)
	assign("price", priceHeaders)
	assign("quantity", quantityHeaders)
	assign("purchased_at", purchasedHeaders)
	return columns
}

func parseRow(record, header []string, columns map[string]int, rowNumber int) (domain.RawImportItem, string) {
	cell := func(field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	item := domain.RawImportItem{
		RowNumber: rowNumber,
		SKU:       cell("sku"),
		Barcode:   cell("barcode"),
		Title:     cell("title"),
		Raw:       rawCells(record, header),
	}

	if item.SKU == "" && item.Barcode == "" && item.Title == "" {
		return domain.RawImportItem{}, "row has no sku, barcode or title"
	}

	if raw := cell("price"); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return domain.RawImportItem{}, fmt.Sprintf("invalid price %q", raw)
		}
		item.Price = &price
	}

	if raw := cell("quantity"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			return domain.RawImportItem{}, fmt.Sprintf("invalid quantity %q", raw)
		}
		item.Quantity = &qty
	}

	if raw := cell("purchased_at"); raw != "" {
		when, err := dateparse.ParseAny(raw)
		if err != nil {
			return domain.RawImportItem{}, fmt.Sprintf("invalid purchase date %q", raw)
		}
		item.PurchasedAt = &when
	}

	return item, ""
}

func rawCells(record, header []string) map[string]string {
	raw := make(map[string]string, len(record))
	for i, value := range record {
		key := strconv.Itoa(i)
		if i < len(header) {
			key = strings.TrimSpace(header[i])
		}
		raw[key] = strings.TrimSpace(value)
	}
	return raw
}

// parsePrice accepts common currency decorations ("$12.99", "12,99 €").
func parsePrice(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, raw)

	// A single comma with no dot is a decimal separator.
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("unparsable price %q", raw)
	}
	return price, nil
}
