package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortProvenance(t *testing.T) {
	recs := []ProvenanceRecord{
		{Producer: 9, Item: 15, AnimalProduct: Code(867)},
		{Producer: 229, Item: 56},
		{Producer: 9, Item: 56},
		{Producer: 4, Item: 15},
	}
	SortProvenance(recs)

	got := make([][3]int, len(recs))
	for i, r := range recs {
		got[i] = [3]int{r.AnimalProductCode(), r.Item, r.Producer}
	}
	assert.Equal(t, [][3]int{{0, 15, 4}, {0, 56, 9}, {0, 56, 229}, {867, 15, 9}}, got)
}
