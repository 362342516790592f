package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/area"
	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/feed"
	"github.com/sells-group/mrio-cli/internal/model"
)

// FeedStage summarizes the feed stage of a year.
type FeedStage struct {
	Checkpoint   bool `yaml:"checkpoint"`
	Flows        int  `yaml:"flows"`
	Requirements int  `yaml:"requirements"`
	Shares       int  `yaml:"shares"`
}

// AreaStage summarizes the area stage of a year.
type AreaStage struct {
	Flows    int     `yaml:"flows"`
	WithArea int     `yaml:"with_area"`
	Hectares float64 `yaml:"hectares_total"`
}

// RunFeed writes the feed-inclusive trade matrix of a year. An existing matrix is
// reused unless force is set.
func (e *Engine) RunFeed(ctx context.Context, year int, force bool) (*FeedStage, error) {
	l := e.cfg.Layout
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("stage", "feed"), zap.Int("year", year))

	out := l.TradeMatrixFeed(year)
	if !force && dataset.Exists(out) {
		log.Info("feed matrix checkpoint found, skipping", zap.String("path", out))
		return &FeedStage{Checkpoint: true}, nil
	}
	if err := dataset.Check(l.FeedInputs(year)...); err != nil {
		return nil, err
	}

	lk, err := e.loadFeedLookups(ctx)
	if err != nil {
		return nil, err
	}
	trade, err := dataset.LoadTradeMatrix(ctx, l.TradeMatrix(year))
	if err != nil {
		return nil, err
	}
	balances, err := dataset.LoadBalance(ctx, l.FAOSTAT(dataset.FileCommodityBalances, year),
		yearFilter(year, 0, model.ElementFeed))
	if err != nil {
		return nil, err
	}
	livestock, err := dataset.LoadBalance(ctx, l.FAOSTAT(dataset.FileLivestock, year),
		yearFilter(year, 0, model.ElementProduction))
	if err != nil {
		return nil, err
	}

	res, err := feed.Allocate(ctx, feed.Inputs{
		Trade:       trade,
		FeedSupply:  feed.Availability(balances, lk.factors),
		Production:  feed.ProductionFromBalance(livestock),
		Weighing:    lk.weighing,
		ShareGroups: lk.shareGroups,
	}, e.cfg.Feed)
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteCSV(out, res.Flows); err != nil {
		return nil, err
	}

	log.Info("feed matrix written", zap.String("path", out), zap.Int("flows", len(res.Flows)))
	return &FeedStage{
		Flows:        len(res.Flows),
		Requirements: len(res.Requirements),
		Shares:       len(res.Shares),
	}, nil
}

// RunArea attaches harvested area to the feed-inclusive trade matrix of a year.
func (e *Engine) RunArea(ctx context.Context, year int) (*AreaStage, error) {
	l := e.cfg.Layout
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("stage", "area"), zap.Int("year", year))

	yieldsPath := l.FAOSTAT(dataset.FileYields, year)
	if err := dataset.Check(l.TradeMatrixFeed(year), yieldsPath); err != nil {
		return nil, err
	}
	flows, err := dataset.LoadTradeMatrix(ctx, l.TradeMatrixFeed(year))
	if err != nil {
		return nil, err
	}
	rows, err := dataset.LoadBalance(ctx, yieldsPath, yearFilter(year, 0, model.ElementYield, model.ElementYieldKg))
	if err != nil {
		return nil, err
	}

	recs := area.Attribute(flows, area.YieldsFromBalance(rows))
	if err := dataset.WriteCSV(l.AreaMatrix(year), recs); err != nil {
		return nil, err
	}

	st := &AreaStage{Flows: len(recs), Hectares: area.Total(recs)}
	for _, r := range recs {
		if r.AreaHa != nil {
			st.WithArea++
		}
	}
	log.Info("area matrix written",
		zap.Int("flows", st.Flows),
		zap.Int("with_area", st.WithArea),
		zap.Float64("hectares", st.Hectares),
	)
	return st, nil
}
