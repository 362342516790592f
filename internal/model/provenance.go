package model

import "sort"

// SourceType splits a consumer's import basket by how an item reaches it.
type SourceType string

const (
	// SourceCrop marks raw primary crops received directly.
	SourceCrop SourceType = "crop"
	// SourcePrimary marks primary items that are themselves animal products.
	SourcePrimary SourceType = "primary"
)

// ImportRatio is the fraction of a consumer's imports of an item attributable to one producer.
type ImportRatio struct {
	Consumer int
	Item     int
	Producer int
	Source   SourceType
	Value    float64
	Ratio    float64
}

// PrimaryConsumption is domestic consumption of a primary item in primary-equivalent mass.
type PrimaryConsumption struct {
	Item  int     `csv:"primary_item_code"`
	Name  string  `csv:"item_name"`
	Value float64 `csv:"value_primary"`
	Err   float64 `csv:"value_primary_err"`
}

// ProvenanceRecord attributes a quantity of a primary commodity to a producer country,
// either directly (food) or through an animal product (feed).
type ProvenanceRecord struct {
	Year              int     `csv:"Year"`
	Consumer          int     `csv:"Consumer_Country_Code"`
	Producer          int     `csv:"Producer_Country_Code"`
	ProducerISO       string  `csv:"Country_ISO"`
	Item              int     `csv:"Item_Code"`
	ItemName          string  `csv:"Item"`
	AnimalProduct     *int    `csv:"Animal_Product_Code"`
	AnimalProductName string  `csv:"Animal_Product"`
	Ratio             float64 `csv:"Ratio"`
	// Value is the import ratio on food records. On feed records it is the summed
	// tonnage of the feed-inclusive flows the record was traced through, which may
	// span several intermediate producers; it is informational, not a quantity of
	// this record's provenance.
	Value             float64 `csv:"Value"`
	Provenance        float64 `csv:"provenance"`
	ProvenanceErr     float64 `csv:"provenance_err"`
}

// AnimalProductCode returns the animal product code, or 0 for food records.
func (r ProvenanceRecord) AnimalProductCode() int {
	if r.AnimalProduct == nil {
		return 0
	}
	return *r.AnimalProduct
}

// SortProvenance orders records by animal product, then item, then producer.
func SortProvenance(recs []ProvenanceRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.AnimalProductCode() != b.AnimalProductCode() {
			return a.AnimalProductCode() < b.AnimalProductCode()
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Producer < b.Producer
	})
}

// AreaRecord is a feed-inclusive trade flow with the harvested area it embodies.
type AreaRecord struct {
	Consumer      int      `csv:"Consumer_Country_Code"`
	Producer      int      `csv:"Producer_Country_Code"`
	Item          int      `csv:"Item_Code"`
	AnimalProduct *int     `csv:"Animal_Product_Code"`
	Year          int      `csv:"Year"`
	Value         float64  `csv:"Value"`
	AreaHa        *float64 `csv:"Area"`
}
