package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/conversion"
	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/impact"
	"github.com/sells-group/mrio-cli/internal/model"
)

// feedLookups are the year-independent tables of the feed stage.
type feedLookups struct {
	factors     conversion.Index
	weighing    []model.WeighingFactor
	shareGroups map[int][]int
}

// provenanceLookups are the year-independent tables of the provenance stage.
// They are read-only once loaded and shared by every country task.
type provenanceLookups struct {
	dir      *model.Directory
	cpc      map[string]int
	factors  conversion.Index
	weighing []model.WeighingFactor
	impacts  *impact.Lookup
	groups   map[string]string
}

func (e *Engine) contentTable() (conversion.MetricTable, error) {
	if e.content != nil {
		return e.content, nil
	}
	table, err := dataset.LoadContentFactors(e.cfg.Layout.Input(dataset.FileContentFactors))
	if err != nil {
		return nil, err
	}
	if _, err := table.Column(e.cfg.Metric); err != nil {
		return nil, err
	}
	e.content = table
	return table, nil
}

func (e *Engine) weighingFactors(ctx context.Context) ([]model.WeighingFactor, error) {
	if e.weighing != nil {
		return e.weighing, nil
	}
	wf, err := dataset.LoadWeighingFactors(ctx, e.cfg.Layout.Input(dataset.FileWeighingFactors))
	if err != nil {
		return nil, err
	}
	e.weighing = wf
	return wf, nil
}

// loadFeedLookups resolves commodity-balance conversion factors: the content table is
// re-keyed from FAO to commodity-balance codes and joined with the CB → primary map.
func (e *Engine) loadFeedLookups(ctx context.Context) (*feedLookups, error) {
	if e.feedLk != nil {
		return e.feedLk, nil
	}
	l := e.cfg.Layout

	content, err := e.contentTable()
	if err != nil {
		return nil, err
	}
	crosswalk, err := dataset.LoadCrosswalk(ctx, l.Input(dataset.FileCBToFAO), "CB_code", "FAO_code")
	if err != nil {
		return nil, err
	}
	links, err := dataset.LoadItemLinks(ctx, l.Input(dataset.FileCBToPrimary), "Item_Code", "Primary_Item_Code", "")
	if err != nil {
		return nil, err
	}
	factors, err := conversion.Resolve(e.cfg.Metric, content.Rekey(crosswalk), links)
	if err != nil {
		return nil, err
	}
	weighing, err := e.weighingFactors(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := dataset.LoadShareGroups(ctx, l.Input(dataset.FileCBSplit))
	if err != nil {
		return nil, err
	}

	e.feedLk = &feedLookups{factors: conversion.NewIndex(factors), weighing: weighing, shareGroups: groups}
	zap.L().Debug("feed lookups loaded",
		zap.String("component", "pipeline"),
		zap.Int("factors", len(factors)),
		zap.Int("share_groups", len(groups)),
	)
	return e.feedLk, nil
}

func (e *Engine) loadProvenanceLookups(ctx context.Context) (*provenanceLookups, error) {
	if e.provLk != nil {
		return e.provLk, nil
	}
	l := e.cfg.Layout

	dir := model.NewDirectory()
	if err := dataset.LoadCountryCodes(l.Input(dataset.FileCountryCodes), dir); err != nil {
		return nil, err
	}
	cpc, err := dataset.LoadItemCodes(ctx, l.Input(dataset.FileSUAItemCodes), dir)
	if err != nil {
		return nil, err
	}
	content, err := e.contentTable()
	if err != nil {
		return nil, err
	}
	links, err := dataset.LoadItemLinks(ctx, l.Input(dataset.FilePrimaryItemMap), "FAO_code", "primary_item", "FAO_name_primary")
	if err != nil {
		return nil, err
	}
	factors, err := conversion.Resolve(e.cfg.Metric, content, links)
	if err != nil {
		return nil, err
	}
	weighing, err := e.weighingFactors(ctx)
	if err != nil {
		return nil, err
	}
	impacts, err := dataset.LoadImpactFactors(ctx, l.Input(dataset.FileImpactFactors))
	if err != nil {
		return nil, err
	}
	groups, err := dataset.LoadItemGroups(ctx, l.Input(dataset.FileItemGroups), e.cfg.GroupColumn)
	if err != nil {
		return nil, err
	}

	e.provLk = &provenanceLookups{
		dir:      dir,
		cpc:      cpc,
		factors:  conversion.NewIndex(factors),
		weighing: weighing,
		impacts:  impact.NewLookup(impacts),
		groups:   groups,
	}
	zap.L().Debug("provenance lookups loaded",
		zap.String("component", "pipeline"),
		zap.Int("factors", len(factors)),
		zap.Int("impact_factors", e.provLk.impacts.Len()),
		zap.Int("item_groups", len(groups)),
	)
	return e.provLk, nil
}

func yearFilter(year, window int, elements ...int) dataset.BalanceFilter {
	return dataset.BalanceFilter{Elements: elements, MinYear: year - window, MaxYear: year + window}
}
