// Package model defines the records that flow between the attribution stages.
package model

import "sort"

// TradeFlow is one net bilateral flow of a commodity for a year, in tonnes.
// Value may be negative when it carries a feed-netting adjustment.
// AnimalProduct is set when the flow is feed embodied in a traded animal product.
type TradeFlow struct {
	Year          int     `csv:"Year"`
	Producer      int     `csv:"Producer_Country_Code"`
	Consumer      int     `csv:"Consumer_Country_Code"`
	Item          int     `csv:"Item_Code"`
	Value         float64 `csv:"Value"`
	AnimalProduct *int    `csv:"Animal_Product_Code"`
}

// HasAnimalProduct reports whether the flow is channeled through an animal product.
func (f TradeFlow) HasAnimalProduct() bool {
	return f.AnimalProduct != nil
}

// AnimalProductCode returns the animal product code, or 0 for direct crop flows.
func (f TradeFlow) AnimalProductCode() int {
	if f.AnimalProduct == nil {
		return 0
	}
	return *f.AnimalProduct
}

// Code returns a pointer to a copy of c, for optional code fields.
func Code(c int) *int {
	return &c
}

// SortTradeFlows orders flows by year, producer, consumer, item and animal product,
// with direct flows before feed-embodied ones.
func SortTradeFlows(flows []TradeFlow) {
	sort.SliceStable(flows, func(i, j int) bool {
		a, b := flows[i], flows[j]
		if a.HasAnimalProduct() != b.HasAnimalProduct() {
			return !a.HasAnimalProduct()
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Producer != b.Producer {
			return a.Producer < b.Producer
		}
		if a.Consumer != b.Consumer {
			return a.Consumer < b.Consumer
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.AnimalProductCode() < b.AnimalProductCode()
	})
}

// FilterConsumer returns the flows received by consumer.
func FilterConsumer(flows []TradeFlow, consumer int) []TradeFlow {
	var out []TradeFlow
	for _, f := range flows {
		if f.Consumer == consumer {
			out = append(out, f)
		}
	}
	return out
}
