package dataset

import (
	"context"

	"github.com/sells-group/mrio-cli/internal/fetcher"
	"github.com/sells-group/mrio-cli/internal/model"
)

// BalanceFilter selects rows of a FAOSTAT normalized table.
type BalanceFilter struct {
	Elements []int  // element codes to keep; empty keeps all
	MinYear  int    // inclusive; 0 = unbounded
	MaxYear  int    // inclusive; 0 = unbounded
	Unit     string // optional exact unit match (e.g. "kg/ha")
}

func (f BalanceFilter) keep(r model.BalanceRow) bool {
	if len(f.Elements) > 0 {
		ok := false
		for _, e := range f.Elements {
			if r.Element == e {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinYear != 0 && r.Year < f.MinYear {
		return false
	}
	if f.MaxYear != 0 && r.Year > f.MaxYear {
		return false
	}
	if f.Unit != "" && r.Unit != f.Unit {
		return false
	}
	return true
}

// LoadBalance streams a Latin-1 FAOSTAT normalized CSV and returns the rows the filter keeps.
// Rows with a missing value are dropped.
func LoadBalance(ctx context.Context, path string, filter BalanceFilter) ([]model.BalanceRow, error) {
	var (
		out  []model.BalanceRow
		cols columns
	)
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path,
				col("Area Code"), col("Item Code"), col("Element Code"), col("Year"), col("Value"),
			); err != nil {
				return err
			}
		}

		value, ok := parseFloat64(cols.get(row, "Value"))
		if !ok {
			return nil
		}
		r := model.BalanceRow{
			Area:    parseIntOr(cols.get(row, "Area Code"), 0),
			Item:    parseIntOr(cols.get(row, "Item Code"), 0),
			CPC:     trimCPC(cols.get(row, "Item Code (CPC)")),
			Element: parseIntOr(cols.get(row, "Element Code"), 0),
			Year:    parseIntOr(cols.get(row, "Year"), 0),
			Unit:    cols.get(row, "Unit"),
			Value:   value,
		}
		if filter.keep(r) {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// trimCPC strips the leading apostrophe FAOSTAT uses to keep CPC codes textual.
func trimCPC(s string) string {
	if len(s) > 0 && s[0] == '\'' {
		return s[1:]
	}
	return s
}

// LoadTradeMatrix reads a trade matrix CSV (Year, Producer_Country_Code, Consumer_Country_Code,
// Item_Code, Value[, Animal_Product_Code]). Rows with a missing value are dropped.
func LoadTradeMatrix(ctx context.Context, path string) ([]model.TradeFlow, error) {
	var (
		out  []model.TradeFlow
		cols columns
	)
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path,
				col("Year"), col("Producer_Country_Code"), col("Consumer_Country_Code"), col("Item_Code"), col("Value"),
			); err != nil {
				return err
			}
		}

		value, ok := parseFloat64(cols.get(row, "Value"))
		if !ok {
			return nil
		}
		out = append(out, model.TradeFlow{
			Year:          parseIntOr(cols.get(row, "Year"), 0),
			Producer:      parseIntOr(cols.get(row, "Producer_Country_Code"), 0),
			Consumer:      parseIntOr(cols.get(row, "Consumer_Country_Code"), 0),
			Item:          parseIntOr(cols.get(row, "Item_Code"), 0),
			Value:         value,
			AnimalProduct: parseOptionalInt(cols.get(row, "Animal_Product_Code")),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
