package model

// ItemLink maps a processed item code onto the primary item it derives from.
type ItemLink struct {
	Processed   int
	Primary     int
	PrimaryName string
}

// ConversionFactor is the primary-equivalent mass per unit of a processed item.
// A zero ratio marks a factor that could not be derived and must not be used.
type ConversionFactor struct {
	ProcessedItem int     `csv:"FAO_code"`
	PrimaryItem   int     `csv:"primary_item_code"`
	PrimaryName   string  `csv:"primary_item"`
	Ratio         float64 `csv:"ratio"`
}

// WeighingFactor apportions shared feed demand across co-produced animal items.
type WeighingFactor struct {
	Item   int
	Factor float64
}

// BalanceRow is one row of a FAOSTAT-style normalized table
// (commodity balances, livestock production, supply utilization, yields).
type BalanceRow struct {
	Area    int
	Item    int
	CPC     string
	Element int
	Year    int
	Unit    string
	Value   float64
}

// FAOSTAT element codes used by the pipeline.
const (
	ElementFeed       = 5520
	ElementProduction = 5510
	ElementFoodSupply = 5141
	ElementYield      = 5419 // 100 g/ha in older bulk files
	ElementYieldKg    = 5412 // kg/ha
)

// FoodSupply is a consumer's reported food supply quantity of an item, with its error.
type FoodSupply struct {
	Country int
	Item    int
	Year    int
	Value   float64
	Err     float64
}

// FeedAvailability is the primary-equivalent mass of a feed item available in a country.
type FeedAvailability struct {
	Country int
	Year    int
	Item    int
	Value   float64
}

// Production is a country's production quantity of an animal item.
type Production struct {
	Country int
	Year    int
	Item    int
	Value   float64
}

// FeedRequirement is the feed item mass required per unit mass of animal product.
type FeedRequirement struct {
	Producer      int     `csv:"AP_Producer_Country_Code"`
	Year          int     `csv:"Year"`
	AnimalProduct int     `csv:"Animal_Product_Code"`
	FeedItem      int     `csv:"Item_Code"`
	FeedPerUnit   float64 `csv:"Feed_per_AP"`
}

// FeedShare is the part of a FeedRequirement sourced from one feed-exporting country.
type FeedShare struct {
	APProducer    int     `csv:"AP_Producer_Country_Code"`
	Year          int     `csv:"Year"`
	AnimalProduct int     `csv:"Animal_Product_Code"`
	FeedProducer  int     `csv:"Feed_Producer_Country_Code"`
	FeedItem      int     `csv:"Feed_Item_Code"`
	Share         float64 `csv:"feed_share"`
}

// Yield is a crop yield in kg/ha for a producer and year.
type Yield struct {
	Producer int
	Item     int
	Year     int
	KgPerHa  float64
}
