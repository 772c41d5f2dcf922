// Package tabular parses delimited text and XLSX workbooks into raw import
// records using tolerant header matching.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// SourceSpreadsheet tags records produced by the direct-parse path.
const SourceSpreadsheet = "spreadsheet-import"

// headerAliases maps squashed header labels onto canonical field keys.
// Lookup happens after lowercasing and stripping non-alphanumerics, so
// "Purchase Price", "purchase_price", and "PurchasePrice" all land on price.
var headerAliases = map[string]string{
	"brand":            "brand",
	"brandname":        "brand",
	"manufacturer":     "brand",
	"name":             "name",
	"cigar":            "name",
	"cigarname":        "name",
	"product":          "name",
	"variant":          "name",
	"quantity":         "quantity",
	"qty":              "quantity",
	"count":            "quantity",
	"price":            "price",
	"purchaseprice":    "price",
	"cost":             "price",
	"unitprice":        "price",
	"date":             "date",
	"purchasedate":     "date",
	"datepurchased":    "date",
	"location":         "location",
	"purchaselocation": "location",
	"store":            "location",
	"shop":             "location",
	"vendor":           "location",
	"notes":            "notes",
	"note":             "notes",
	"comment":          "notes",
	"comments":         "notes",
	"description":      "notes",
	"image":            "image",
	"imageurl":         "image",
	"photo":            "image",
	"length":           "length",
	"ring":             "ring",
	"ringgauge":        "ring",
	"gauge":            "ring",
	"country":          "country",
	"origin":           "country",
	"countryoforigin":  "country",
	"wrapper":          "wrapper",
	"binder":           "binder",
	"filler":           "filler",
	"color":            "color",
	"colour":           "color",
	"strength":         "strength",
	"body":             "strength",
}

// ParseDelimited parses CSV or TSV text. The delimiter is sniffed from the
// header line.
func ParseDelimited(text string) ([]entity.RawRecord, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited: %w", err)
	}
	return rowsToRecords(rows)
}

// ParseFirstSheet parses the first sheet of an XLSX workbook.
func ParseFirstSheet(data []byte) ([]entity.RawRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rowsToRecords(rows)
}

func sniffDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		return '\t'
	}
	return ','
}

// rowsToRecords maps header columns onto record fields. Rows missing brand or
// name are dropped silently; the caller only sees usable candidates.
func rowsToRecords(rows [][]string) ([]entity.RawRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	fields := make(map[int]string, len(rows[0]))
	for i, h := range rows[0] {
		if key, ok := headerAliases[squash(h)]; ok {
			fields[i] = key
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no recognizable columns in header")
	}

	records := make([]entity.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := entity.RawRecord{Source: SourceSpreadsheet}
		for i, cell := range row {
			key, ok := fields[i]
			if !ok {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			switch key {
			case "brand":
				rec.Brand = value
			case "name":
				rec.Name = value
			case "quantity":
				rec.Quantity = value
			case "price":
				rec.PurchasePrice = value
			case "date":
				rec.PurchaseDate = value
			case "location":
				rec.PurchaseLocation = value
			case "notes":
				rec.Notes = value
			case "image":
				rec.ImageURL = value
			case "length":
				rec.Length = value
			case "ring":
				rec.RingGauge = value
			case "country":
				rec.Country = value
			case "wrapper":
				rec.Wrapper = value
			case "binder":
				rec.Binder = value
			case "filler":
				rec.Filler = value
			case "color":
				rec.Color = value
			case "strength":
				rec.Strength = value
			}
		}
		if rec.Brand == "" || rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// squash lowercases a header and strips everything non-alphanumeric.
func squash(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
