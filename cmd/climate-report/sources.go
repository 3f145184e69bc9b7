package main

import (
	"github.com/couchcryptid/climate-anomaly/internal/adapter/source"
	"github.com/couchcryptid/climate-anomaly/internal/config"
	"github.com/couchcryptid/climate-anomaly/internal/domain"
	"github.com/couchcryptid/climate-anomaly/internal/pipeline"
)

// sources lists the series reported every cycle.
func sources(cfg *config.Config, fetcher source.Fetcher) []pipeline.Source {
	return []pipeline.Source{
		{
			Info: domain.SeriesInfo{
				ID:     "na-sst",
				Title:  "North Atlantic Sea Surface Temperature",
				Unit:   "°C",
				Region: "North Atlantic",
			},
			Caption: pipeline.CaptionStyle{
				Emoji:    "🌏🔥🌡️",
				Hashtags: []string{"ClimateChange", "NorthAtlantic", "SST", "GlobalWarming", "greenhouse", "science", "dataanalysis"},
			},
			Retriever: source.NewReanalyzerClient(fetcher, cfg.SST.URL),
			Grid: domain.GridOptions{
				Exclusions: domain.DefaultReanalyzerExclusions(),
				MinYear:    cfg.SST.MinYear,
			},
			Request: domain.AnomalyRequest{
				ReferenceStart: cfg.SST.ReferenceStart,
				ReferenceEnd:   cfg.SST.ReferenceEnd,
			},
		},
		{
			Info: domain.SeriesInfo{
				ID:     "antarctic-sea-ice",
				Title:  "Antarctic Sea Ice",
				Unit:   "10^6 km²",
				Region: "Southern Hemisphere",
			},
			Caption: pipeline.CaptionStyle{
				Emoji:      "🌏🇦🇶🔥",
				UnitPhrase: "Million Square Kilometers",
				Hashtags:   []string{"ClimateCrisis", "SeaIce", "Antarctica", "Greenhouse", "science", "dataanalysis"},
			},
			Retriever: source.NewNSIDCClient(fetcher, cfg.SeaIce.URL),
			Grid:      domain.GridOptions{MinYear: cfg.SeaIce.MinYear},
			Request: domain.AnomalyRequest{
				ReferenceStart: cfg.SeaIce.ReferenceStart,
				ReferenceEnd:   cfg.SeaIce.ReferenceEnd,
			},
		},
	}
}
