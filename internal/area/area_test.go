package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mrio-cli/internal/model"
)

func TestYieldsFromBalance(t *testing.T) {
	got := YieldsFromBalance([]model.BalanceRow{
		{Area: 9, Item: 15, Element: model.ElementYieldKg, Year: 2013, Unit: "kg/ha", Value: 4000},
		{Area: 9, Item: 56, Element: model.ElementYield, Year: 2013, Unit: "100 g/ha", Value: 80000},
		{Area: 9, Item: 56, Element: model.ElementYield, Year: 2013, Unit: "t", Value: 1},
		{Area: 9, Item: 56, Element: model.ElementProduction, Year: 2013, Unit: "kg/ha", Value: 1},
	})
	assert.Equal(t, []model.Yield{
		{Producer: 9, Item: 15, Year: 2013, KgPerHa: 4000},
		{Producer: 9, Item: 56, Year: 2013, KgPerHa: 8000},
	}, got)
}

func TestAttribute(t *testing.T) {
	flows := []model.TradeFlow{
		{Year: 2013, Producer: 9, Consumer: 229, Item: 15, Value: 100},
		{Year: 2013, Producer: 9, Consumer: 229, Item: 15, Value: 8, AnimalProduct: model.Code(867)},
		{Year: 2013, Producer: 10, Consumer: 229, Item: 15, Value: 50},
		{Year: 2013, Producer: 9, Consumer: 229, Item: 56, Value: 5},
	}
	yields := []model.Yield{
		{Producer: 9, Item: 15, Year: 2013, KgPerHa: 4000},
		{Producer: 9, Item: 56, Year: 2013, KgPerHa: 0},
	}

	recs := Attribute(flows, yields)
	require.Len(t, recs, 4)

	require.NotNil(t, recs[0].AreaHa)
	assert.InDelta(t, 25.0, *recs[0].AreaHa, 1e-12)
	require.NotNil(t, recs[1].AreaHa)
	assert.InDelta(t, 2.0, *recs[1].AreaHa, 1e-12)
	assert.Equal(t, 867, *recs[1].AnimalProduct)
	assert.Nil(t, recs[2].AreaHa, "no yield for producer")
	assert.Nil(t, recs[3].AreaHa, "zero yield")

	assert.InDelta(t, 27.0, Total(recs), 1e-12)
}
