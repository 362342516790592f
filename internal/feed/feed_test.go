package feed

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/model"
)

const (
	exporter = 1 // raises cattle, exports beef
	grower   = 2 // grows wheat
	importer = 3 // imports beef

	wheat   = 15
	wheatCB = 2511
	beef    = 867
	milk    = 882
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func scenario() Inputs {
	return Inputs{
		Trade: []model.TradeFlow{
			{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 300},
			{Year: 2013, Producer: exporter, Consumer: exporter, Item: wheat, Value: 100},
			{Year: 2013, Producer: exporter, Consumer: importer, Item: beef, Value: 10},
			{Year: 2013, Producer: grower, Consumer: importer, Item: wheat, Value: 50},
		},
		FeedSupply: []model.FeedAvailability{
			{Country: exporter, Year: 2013, Item: wheatCB, Value: 200},
		},
		Production: []model.Production{
			{Country: exporter, Year: 2013, Item: beef, Value: 100},
		},
		Weighing:    []model.WeighingFactor{{Item: beef, Factor: 2}},
		ShareGroups: map[int][]int{wheat: {wheatCB}},
	}
}

func TestAllocate_EmbodiesAndNetsFeed(t *testing.T) {
	res, err := Allocate(context.Background(), scenario(), DefaultOptions())
	require.NoError(t, err)

	want := []model.TradeFlow{
		{Year: 2013, Producer: exporter, Consumer: exporter, Item: wheat, Value: 95},
		{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 285},
		{Year: 2013, Producer: grower, Consumer: importer, Item: wheat, Value: 50},
		{Year: 2013, Producer: exporter, Consumer: importer, Item: wheat, Value: 5, AnimalProduct: model.Code(beef)},
		{Year: 2013, Producer: grower, Consumer: importer, Item: wheat, Value: 15, AnimalProduct: model.Code(beef)},
	}
	if diff := cmp.Diff(want, res.Flows, approx); diff != "" {
		t.Errorf("flows mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Requirements, 1)
	assert.Equal(t, model.FeedRequirement{
		Producer: exporter, Year: 2013, AnimalProduct: beef, FeedItem: wheatCB, FeedPerUnit: 2,
	}, res.Requirements[0])

	wantShares := []model.FeedShare{
		{APProducer: exporter, Year: 2013, AnimalProduct: beef, FeedProducer: grower, FeedItem: wheat, Share: 1.5},
		{APProducer: exporter, Year: 2013, AnimalProduct: beef, FeedProducer: exporter, FeedItem: wheat, Share: 0.5},
	}
	if diff := cmp.Diff(wantShares, res.Shares, approx); diff != "" {
		t.Errorf("shares mismatch (-want +got):\n%s", diff)
	}
}

func TestAllocate_NettingConservesWheat(t *testing.T) {
	in := scenario()
	res, err := Allocate(context.Background(), in, DefaultOptions())
	require.NoError(t, err)

	var before, after float64
	for _, f := range in.Trade {
		if f.Item == wheat {
			before += f.Value
		}
	}
	for _, f := range res.Flows {
		after += f.Value
	}
	assert.InDelta(t, before, after, 1e-9)
}

func TestAllocate_Idempotent(t *testing.T) {
	a, err := Allocate(context.Background(), scenario(), DefaultOptions())
	require.NoError(t, err)
	b, err := Allocate(context.Background(), scenario(), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, cmp.Equal(a, b), cmp.Diff(a, b))
}

func TestAllocate_ZeroLivestockPassThrough(t *testing.T) {
	in := Inputs{
		Trade: []model.TradeFlow{
			{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 10},
			{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 5},
			{Year: 2013, Producer: exporter, Consumer: importer, Item: beef, Value: 3},
		},
		ShareGroups: map[int][]int{wheat: {wheatCB}},
	}
	res, err := Allocate(context.Background(), in, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, res.Requirements)
	assert.Equal(t, []model.TradeFlow{
		{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 15},
	}, res.Flows)
}

func TestAllocate_InvalidOptions(t *testing.T) {
	_, err := Allocate(context.Background(), scenario(), Options{})
	require.Error(t, err)
}

func TestAllocate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Allocate(ctx, scenario(), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequirements_WeightedSplit(t *testing.T) {
	pairs := []countryYear{{exporter, 2013}}
	production := []model.Production{
		{Country: exporter, Year: 2013, Item: beef, Value: 100},
		{Country: exporter, Year: 2013, Item: milk, Value: 300},
	}
	supply := []model.FeedAvailability{{Country: exporter, Year: 2013, Item: wheatCB, Value: 600}}
	weighing := []model.WeighingFactor{
		{Item: beef, Factor: 3},
		{Item: milk, Factor: 1},
		{Item: 1058, Factor: 0}, // excluded
	}

	reqs := Requirements(pairs, production, supply, weighing)
	require.Len(t, reqs, 2)
	assert.Equal(t, beef, reqs[0].AnimalProduct)
	assert.InDelta(t, 3.0, reqs[0].FeedPerUnit, 1e-12)
	assert.Equal(t, milk, reqs[1].AnimalProduct)
	assert.InDelta(t, 1.0, reqs[1].FeedPerUnit, 1e-12)

	// Feed per unit times production recovers the available feed.
	var feed float64
	for _, r := range reqs {
		for _, p := range production {
			if p.Item == r.AnimalProduct {
				feed += r.FeedPerUnit * p.Value
			}
		}
	}
	assert.InDelta(t, 600.0, feed, 1e-9)
}

func TestRequirements_NonNegative(t *testing.T) {
	pairs := []countryYear{{exporter, 2013}, {grower, 2013}}
	production := []model.Production{
		{Country: exporter, Year: 2013, Item: beef, Value: 100},
		{Country: exporter, Year: 2013, Item: milk, Value: -5},
		{Country: grower, Year: 2013, Item: beef, Value: 10},
	}
	supply := []model.FeedAvailability{
		{Country: exporter, Year: 2013, Item: wheatCB, Value: 50},
		{Country: exporter, Year: 2013, Item: 2513, Value: -1},
		{Country: exporter, Year: 2013, Item: 2514, Value: 0},
	}
	reqs := Requirements(pairs, production, supply, []model.WeighingFactor{{Item: beef, Factor: 1}, {Item: milk, Factor: 1}})
	require.Len(t, reqs, 1)
	for _, r := range reqs {
		assert.Greater(t, r.FeedPerUnit, 0.0)
	}
}

func TestShares_ZeroValuedFlowGetsZero(t *testing.T) {
	reqs := []model.FeedRequirement{{Producer: exporter, Year: 2013, AnimalProduct: beef, FeedItem: wheatCB, FeedPerUnit: 4}}
	trade := []model.TradeFlow{
		{Year: 2013, Producer: grower, Consumer: exporter, Item: wheat, Value: 0},
		{Year: 2013, Producer: importer, Consumer: exporter, Item: wheat, Value: 0},
	}
	shares := Shares(reqs, trade, map[int][]int{wheat: {wheatCB}}, 867)
	require.Len(t, shares, 2)
	for _, s := range shares {
		assert.Zero(t, s.Share)
	}
}

func TestShares_CeilingExcludesAnimalItems(t *testing.T) {
	reqs := []model.FeedRequirement{{Producer: exporter, Year: 2013, AnimalProduct: beef, FeedItem: 9999, FeedPerUnit: 1}}
	trade := []model.TradeFlow{
		{Year: 2013, Producer: grower, Consumer: exporter, Item: 867, Value: 10},
	}
	shares := Shares(reqs, trade, map[int][]int{867: {9999}}, 867)
	assert.Empty(t, shares)
}

func TestAvailability(t *testing.T) {
	idx := conversion.NewIndex([]model.ConversionFactor{
		{ProcessedItem: wheatCB, PrimaryItem: wheatCB, Ratio: 1},
		{ProcessedItem: 2514, PrimaryItem: wheatCB, Ratio: 2},
		{ProcessedItem: 2520, PrimaryItem: wheatCB, Ratio: 0},
	})
	rows := []model.BalanceRow{
		{Area: exporter, Item: wheatCB, Element: model.ElementFeed, Year: 2013, Value: 100},
		{Area: exporter, Item: 2514, Element: model.ElementFeed, Year: 2013, Value: 50},
		{Area: exporter, Item: 2520, Element: model.ElementFeed, Year: 2013, Value: 70},
		{Area: exporter, Item: wheatCB, Element: model.ElementProduction, Year: 2013, Value: 1000},
		{Area: 5000, Item: wheatCB, Element: model.ElementFeed, Year: 2013, Value: 1e6},
	}

	got := Availability(rows, idx)
	assert.Equal(t, []model.FeedAvailability{{Country: exporter, Year: 2013, Item: wheatCB, Value: 125}}, got)
}

func TestProductionFromBalance(t *testing.T) {
	got := ProductionFromBalance([]model.BalanceRow{
		{Area: exporter, Item: beef, Element: model.ElementProduction, Year: 2013, Value: 7},
		{Area: exporter, Item: beef, Element: 5111, Year: 2013, Value: 9},
	})
	assert.Equal(t, []model.Production{{Country: exporter, Year: 2013, Item: beef, Value: 7}}, got)
}
