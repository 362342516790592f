package dataset

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/fetcher"
	"github.com/sells-group/mrio-cli/internal/model"
)

// LoadContentFactors reads the per-100g content workbook. The first sheet row
// holds units, the second the header (Item Code followed by one column per metric).
// Blank cells are left out of the table.
func LoadContentFactors(path string) (conversion.MetricTable, error) {
	header, rows, err := fetcher.ReadXLSXTable(path, fetcher.XLSXOptions{SkipRows: 1})
	if err != nil {
		return nil, err
	}
	cols := mapColumnsNormalized(header)
	if err := cols.require(path, col("Item Code")); err != nil {
		return nil, err
	}

	table := make(conversion.MetricTable)
	for _, m := range conversion.Metrics {
		if !cols.has(string(m)) {
			continue
		}
		values := make(map[int]float64, len(rows))
		for _, row := range rows {
			code := parseIntOr(cols.get(row, "Item Code"), 0)
			if code == 0 {
				continue
			}
			v, ok := parseFloat64(cols.get(row, string(m)))
			if !ok {
				continue
			}
			if _, dup := values[code]; !dup {
				values[code] = v
			}
		}
		table[m] = values
	}
	return table, nil
}

// LoadCountryCodes registers ISO3 ↔ FAOSTAT codes from the FAO country workbook.
func LoadCountryCodes(path string, dir *model.Directory) error {
	header, rows, err := fetcher.ReadXLSXTable(path, fetcher.XLSXOptions{})
	if err != nil {
		return err
	}
	cols := mapColumnsNormalized(header)
	if err := cols.require(path, col("ISO3"), col("FAOSTAT")); err != nil {
		return err
	}
	for _, row := range rows {
		code := parseIntOr(cols.get(row, "FAOSTAT"), 0)
		if code == 0 {
			continue
		}
		dir.AddCountry(cols.get(row, "ISO3"), code)
	}
	return nil
}

// LoadItemCodes registers item names from the SUA item-code list and returns the CPC → FAO code map.
func LoadItemCodes(ctx context.Context, path string, dir *model.Directory) (map[string]int, error) {
	cpc := make(map[string]int)
	var cols columns
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col("Item Code"), col("Item")); err != nil {
				return err
			}
		}
		code := parseIntOr(cols.get(row, "Item Code"), 0)
		if code == 0 {
			return nil
		}
		dir.AddItem(code, cols.get(row, "Item"))
		if c := trimCPC(strings.TrimSpace(cols.get(row, "CPC Code"))); c != "" {
			if _, ok := cpc[c]; !ok {
				cpc[c] = code
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cpc, nil
}

// LoadItemLinks reads a processed → primary item map. The name column is optional.
func LoadItemLinks(ctx context.Context, path, processedCol, primaryCol, nameCol string) ([]model.ItemLink, error) {
	var (
		out  []model.ItemLink
		cols columns
	)
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col(processedCol), col(primaryCol)); err != nil {
				return err
			}
		}
		processed := parseIntOr(cols.get(row, processedCol), 0)
		primary := parseIntOr(cols.get(row, primaryCol), 0)
		if processed == 0 || primary == 0 {
			return nil
		}
		link := model.ItemLink{Processed: processed, Primary: primary}
		if nameCol != "" {
			link.PrimaryName = strings.TrimSpace(cols.get(row, nameCol))
		}
		out = append(out, link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadCrosswalk reads a one-to-one code map keyed by keyCol. The first row of a key wins.
func LoadCrosswalk(ctx context.Context, path, keyCol, valueCol string) (map[int]int, error) {
	out := make(map[int]int)
	var cols columns
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col(keyCol), col(valueCol)); err != nil {
				return err
			}
		}
		k := parseIntOr(cols.get(row, keyCol), 0)
		v := parseIntOr(cols.get(row, valueCol), 0)
		if k == 0 || v == 0 {
			return nil
		}
		if _, ok := out[k]; !ok {
			out[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadShareGroups reads the item → feed share group map (one item may belong to several groups).
func LoadShareGroups(ctx context.Context, path string) (map[int][]int, error) {
	out := make(map[int][]int)
	var cols columns
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col("Primary_Item_Code"), col("CB_Item_Code")); err != nil {
				return err
			}
		}
		item := parseIntOr(cols.get(row, "Primary_Item_Code"), 0)
		group := parseIntOr(cols.get(row, "CB_Item_Code"), 0)
		if item == 0 || group == 0 {
			return nil
		}
		out[item] = append(out[item], group)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadWeighingFactors reads the animal item weighing factors.
func LoadWeighingFactors(ctx context.Context, path string) ([]model.WeighingFactor, error) {
	var (
		out  []model.WeighingFactor
		cols columns
	)
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col("Item_Code"), col("Weighing factors", "Weighing_factor")); err != nil {
				return err
			}
		}
		item := parseIntOr(cols.get(row, "Item_Code"), 0)
		factor, ok := parseFloat64(cols.get(row, "Weighing factors", "Weighing_factor"))
		if item == 0 || !ok {
			return nil
		}
		out = append(out, model.WeighingFactor{Item: item, Factor: factor})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// impactColumns lists the coefficient columns of the impact table; each has a "<name>_rel_err" partner.
var impactColumns = []string{"arable_m2", "pasture_m2", "ghg", "water_l", "bd_opp_cost"}

// LoadImpactFactors reads per-item impact coefficients. Producer_Country_Code is optional;
// missing coefficients and errors read as zero.
func LoadImpactFactors(ctx context.Context, path string) ([]model.ImpactFactor, error) {
	var (
		out  []model.ImpactFactor
		cols columns
	)
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			required := [][]string{col("Item_Code")}
			for _, c := range impactColumns {
				required = append(required, col(c))
			}
			if err := cols.require(path, required...); err != nil {
				return err
			}
		}
		item := parseIntOr(cols.get(row, "Item_Code"), 0)
		if item == 0 {
			return nil
		}
		coef := func(name string) model.Coefficient {
			return model.Coefficient{
				Value:  parseFloat64Or(cols.get(row, name), 0),
				RelErr: parseFloat64Or(cols.get(row, name+"_rel_err"), 0),
			}
		}
		out = append(out, model.ImpactFactor{
			Producer:  parseIntOr(cols.get(row, "Producer_Country_Code"), 0),
			Item:      item,
			Arable:    coef("arable_m2"),
			Pasture:   coef("pasture_m2"),
			GHG:       coef("ghg"),
			Water:     coef("water_l"),
			BDOppCost: coef("bd_opp_cost"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadItemGroups reads item name → group from the crop database.
func LoadItemGroups(ctx context.Context, path, groupCol string) (map[string]string, error) {
	out := make(map[string]string)
	var cols columns
	err := fetcher.EachCSVRow(ctx, path, fetcher.CSVOptions{Latin1: true}, func(header, row []string) error {
		if cols == nil {
			cols = mapColumnsNormalized(header)
			if err := cols.require(path, col("Item"), col(groupCol)); err != nil {
				return err
			}
		}
		item := strings.TrimSpace(cols.get(row, "Item"))
		if item == "" {
			return nil
		}
		if _, ok := out[item]; !ok {
			out[item] = strings.TrimSpace(cols.get(row, groupCol))
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "dataset: item groups")
	}
	return out, nil
}
