// Package dataset loads the pipeline's input tables and writes its output tables.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMissingInput is returned when a required input file does not exist.
var ErrMissingInput = errors.New("dataset: missing input")

// Input file names inside the input directory.
const (
	FileCommodityBalances = "CommodityBalances_Crops_E_All_Data_(Normalized).csv"
	FileLivestock         = "Production_LivestockPrimary_E_All_Data_(Normalized).csv"
	FileSUA               = "SUA_Crops_Livestock_E_All_Data_(Normalized).csv"
	FileSUAItemCodes      = "SUA_Crops_Livestock_E_ItemCodes.csv"
	FileYields            = "Production_Crops_Livestock_E_All_Data_(Normalized).csv"
	FileContentFactors    = "content_factors_per_100g.xlsx"
	FileCountryCodes      = "nocsDataExport.xlsx"
	FileCBToPrimary       = "CB_to_primary_items_map.csv"
	FileCBSplit           = "CB_items_split.csv"
	FileCBToFAO           = "CB_code_FAO_code_for_conversion_factors.csv"
	FilePrimaryItemMap    = "primary_item_map_feed.csv"
	FileWeighingFactors   = "weighing_factors.csv"
	FileImpactFactors     = "impact_factors.csv"
	FileItemGroups        = "crop_db.csv"
)

// Layout resolves input and result paths for one run configuration.
type Layout struct {
	InputDir       string
	ResultsDir     string
	Prefer         string // "import" or "export"
	Metric         string // conversion metric name
	HistoricBefore int    // years before this use the Historic FAOSTAT variants when present
}

// Input returns the path of a file in the input directory.
func (l Layout) Input(name string) string {
	return filepath.Join(l.InputDir, name)
}

// FAOSTAT returns the path of a FAOSTAT bulk file for a year, preferring the
// "Historic" variant for early years when it exists.
func (l Layout) FAOSTAT(name string, year int) string {
	if year < l.HistoricBefore {
		historic := strings.Replace(name, "_E_All_Data", "Historic_E_All_Data", 1)
		if p := l.Input(historic); fileExists(p) {
			return p
		}
	}
	return l.Input(name)
}

// YearDir is the results directory of a year.
func (l Layout) YearDir(year int) string {
	return filepath.Join(l.ResultsDir, fmt.Sprint(year))
}

// MRIODir holds the per-year intermediate trade matrices.
func (l Layout) MRIODir(year int) string {
	return filepath.Join(l.YearDir(year), ".mrio")
}

// CountryDir is the results directory of a country in a year.
func (l Layout) CountryDir(year int, iso string) string {
	return filepath.Join(l.YearDir(year), strings.ToUpper(iso))
}

// TradeMatrix is the externally built feed-exclusive trade matrix of a year.
func (l Layout) TradeMatrix(year int) string {
	return filepath.Join(l.MRIODir(year), fmt.Sprintf("TradeMatrix_%s_%s.csv", l.Prefer, l.Metric))
}

// TradeMatrixFeed is the feed-inclusive trade matrix of a year (checkpoint).
func (l Layout) TradeMatrixFeed(year int) string {
	return filepath.Join(l.MRIODir(year), fmt.Sprintf("TradeMatrixFeed_%s_%s.csv", l.Prefer, l.Metric))
}

// AreaMatrix is the feed-inclusive trade matrix with embodied area.
func (l Layout) AreaMatrix(year int) string {
	return filepath.Join(l.MRIODir(year), fmt.Sprintf("TradeMatrixFeed_%s_%s_Area.csv", l.Prefer, l.Metric))
}

// MissingItems is the per-year list of items without impact coefficients.
func (l Layout) MissingItems(year int) string {
	return filepath.Join(l.YearDir(year), "missing_items.txt")
}

// Report is the per-year run report.
func (l Layout) Report(year int) string {
	return filepath.Join(l.YearDir(year), "report.yaml")
}

// FeedInputs are the files the feed stage reads for a year.
func (l Layout) FeedInputs(year int) []string {
	return []string{
		l.TradeMatrix(year),
		l.FAOSTAT(FileCommodityBalances, year),
		l.FAOSTAT(FileLivestock, year),
		l.Input(FileContentFactors),
		l.Input(FileCBToPrimary),
		l.Input(FileCBSplit),
		l.Input(FileCBToFAO),
		l.Input(FileWeighingFactors),
	}
}

// ProvenanceInputs are the files the provenance and impact stages read for a year.
func (l Layout) ProvenanceInputs(year int) []string {
	return []string{
		l.TradeMatrix(year),
		l.TradeMatrixFeed(year),
		l.FAOSTAT(FileSUA, year),
		l.Input(FileSUAItemCodes),
		l.Input(FileContentFactors),
		l.Input(FileCountryCodes),
		l.Input(FilePrimaryItemMap),
		l.Input(FileWeighingFactors),
		l.Input(FileImpactFactors),
		l.Input(FileItemGroups),
	}
}

// Check reports every path that does not exist, wrapped in ErrMissingInput.
func Check(paths ...string) error {
	var missing []string
	for _, p := range paths {
		if !fileExists(p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrMissingInput, "%s", strings.Join(missing, ", "))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	return fileExists(path)
}
