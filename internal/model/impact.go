package model

// Coefficient is a per-tonne impact value with its relative error.
type Coefficient struct {
	Value  float64
	RelErr float64
}

// ImpactFactor holds the environmental coefficients of an item.
// Producer 0 applies to every producer without a specific entry.
type ImpactFactor struct {
	Producer  int
	Item      int
	Arable    Coefficient // m2 per tonne
	Pasture   Coefficient // m2 per tonne
	GHG       Coefficient // kg CO2e per tonne
	Water     Coefficient // scarcity-weighted litres per tonne
	BDOppCost Coefficient // biodiversity opportunity cost per tonne
}

// Origin separates domestic production from overseas supply.
type Origin string

const (
	OriginDomestic Origin = "domestic"
	OriginOverseas Origin = "overseas"
)

// ImpactSummary aggregates the impacts of one consumed item by origin.
type ImpactSummary struct {
	Origin      Origin  `csv:"Origin"`
	Item        int     `csv:"ItemT_Code"`
	ItemName    string  `csv:"ItemT_Name"`
	Group       string  `csv:"Group"`
	PastureM2   float64 `csv:"Pasture_m2"`
	ArableM2    float64 `csv:"Arable_m2"`
	LandM2      float64 `csv:"Land_m2"`
	LandErr     float64 `csv:"Land_m2_err"`
	WaterL      float64 `csv:"Scarcity_weighted_water_l"`
	WaterErr    float64 `csv:"Scarcity_weighted_water_l_err"`
	GHGFood     float64 `csv:"ghg_food"`
	GHGFeed     float64 `csv:"ghg_feed"`
	GHGTotal    float64 `csv:"ghg_total"`
	GHGTotalErr float64 `csv:"ghg_total_err"`
	BDFood      float64 `csv:"bd_opp_food"`
	BDFoodErr   float64 `csv:"bd_opp_food_err"`
	BDFeed      float64 `csv:"bd_opp_feed"`
	BDFeedErr   float64 `csv:"bd_opp_feed_err"`
	BDTotal     float64 `csv:"bd_opp_total"`
	BDTotalErr  float64 `csv:"bd_opp_total_err"`
	Cons        float64 `csv:"Cons"`
	ConsErr     float64 `csv:"Cons_err"`
}

// MissingItem names an item that had no impact coefficients.
type MissingItem struct {
	Name string
	Code int
}
