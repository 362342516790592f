package feed

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/model"
)

// Options holds the item-code thresholds of the allocator.
type Options struct {
	// AnimalItemThreshold splits the trade matrix: items above it are animal
	// products, items below it are crops.
	AnimalItemThreshold int
	// CropShareCeiling bounds the items used for feed sourcing shares (exclusive).
	CropShareCeiling int
}

// DefaultOptions returns the FAOSTAT item-code thresholds.
func DefaultOptions() Options {
	return Options{AnimalItemThreshold: 850, CropShareCeiling: 867}
}

// Inputs are the tables the allocator reads for one year.
type Inputs struct {
	Trade       []model.TradeFlow
	FeedSupply  []model.FeedAvailability
	Production  []model.Production
	Weighing    []model.WeighingFactor
	ShareGroups map[int][]int
}

// Result is the output of Allocate. Flows is the feed-inclusive trade matrix.
type Result struct {
	Requirements []model.FeedRequirement
	Shares       []model.FeedShare
	Flows        []model.TradeFlow
}

type embodiedKey struct {
	year, feedProducer, consumer, feedItem, animal int
}

type flowKey struct {
	year, producer, consumer, item int
}

// Allocate converts traded animal products into the crop feed embodied in them.
// The result holds the direct crop flows, with the feed each animal-product exporter
// consumed netted out of its own crop supply, plus one feed-embodied flow per
// (year, feed producer, consumer, feed item, animal product). When no animal
// products are traded the crop flows pass through aggregated.
func Allocate(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "feed"))

	if opts.AnimalItemThreshold <= 0 || opts.CropShareCeiling <= 0 {
		return nil, eris.Errorf("feed: invalid thresholds %d/%d", opts.AnimalItemThreshold, opts.CropShareCeiling)
	}

	reqs := Requirements(producerYears(in.Trade), in.Production, in.FeedSupply, in.Weighing)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shares := Shares(reqs, in.Trade, in.ShareGroups, opts.CropShareCeiling)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// shares by (year, animal product producer, animal product)
	sharesBy := make(map[flowKey][]model.FeedShare)
	for _, s := range shares {
		k := flowKey{year: s.Year, producer: s.APProducer, item: s.AnimalProduct}
		sharesBy[k] = append(sharesBy[k], s)
	}

	embodied := make(map[embodiedKey]float64)
	netting := make(map[flowKey]float64)
	for _, f := range in.Trade {
		if f.HasAnimalProduct() || f.Item <= opts.AnimalItemThreshold {
			continue
		}
		for _, s := range sharesBy[flowKey{year: f.Year, producer: f.Producer, item: f.Item}] {
			tons := s.Share * f.Value
			embodied[embodiedKey{f.Year, s.FeedProducer, f.Consumer, s.FeedItem, f.Item}] += tons
			netting[flowKey{f.Year, s.FeedProducer, f.Producer, s.FeedItem}] += tons
		}
	}

	crops := make(map[flowKey]float64)
	for _, f := range in.Trade {
		if f.HasAnimalProduct() || f.Item >= opts.AnimalItemThreshold {
			continue
		}
		crops[flowKey{f.Year, f.Producer, f.Consumer, f.Item}] += f.Value
	}
	for k, v := range netting {
		crops[k] -= v
	}

	flows := make([]model.TradeFlow, 0, len(crops)+len(embodied))
	for k, v := range crops {
		flows = append(flows, model.TradeFlow{Year: k.year, Producer: k.producer, Consumer: k.consumer, Item: k.item, Value: v})
	}
	for k, v := range embodied {
		flows = append(flows, model.TradeFlow{
			Year:          k.year,
			Producer:      k.feedProducer,
			Consumer:      k.consumer,
			Item:          k.feedItem,
			Value:         v,
			AnimalProduct: model.Code(k.animal),
		})
	}
	model.SortTradeFlows(flows)
	sortRequirements(reqs)

	log.Info("feed allocated",
		zap.Int("requirements", len(reqs)),
		zap.Int("shares", len(shares)),
		zap.Int("crop_flows", len(crops)),
		zap.Int("feed_flows", len(embodied)),
	)
	return &Result{Requirements: reqs, Shares: shares, Flows: flows}, nil
}

func sortRequirements(reqs []model.FeedRequirement) {
	sort.SliceStable(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Producer != b.Producer {
			return a.Producer < b.Producer
		}
		if a.AnimalProduct != b.AnimalProduct {
			return a.AnimalProduct < b.AnimalProduct
		}
		return a.FeedItem < b.FeedItem
	})
}
