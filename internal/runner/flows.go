package runner

import (
	"fmt"
	"time"

	"lottery-relay/internal/adapters/extract"
	"lottery-relay/internal/adapters/resultsapi"
	"lottery-relay/internal/adapters/snapshot"
	"lottery-relay/internal/adapters/source"
	"lottery-relay/internal/adapters/web"
	"lottery-relay/internal/domain"
	"lottery-relay/internal/infra/config"
	"lottery-relay/internal/usecase/crawl"
	"lottery-relay/internal/usecase/lucky"
	"lottery-relay/internal/usecase/plan"
	"lottery-relay/internal/usecase/state"
)

const (
	pageTimeout     = 15 * time.Second
	documentTimeout = 20 * time.Second
	pdfRenderScale  = 2
)

// Engines содержит тяжёлые движки распознавания, создаваемые в main.
type Engines struct {
	OCR    domain.Recognizer
	PDF    domain.PDFTextReader
	Raster domain.Rasterizer
}

// NewCrawler собирает сервис краулера для потока из sources.yaml.
func NewCrawler(env Env, flowName string, engines Engines) (*crawl.Service, error) {
	flow, err := env.Sources.Flow(flowName)
	if err != nil {
		return nil, err
	}
	logger := env.Logger

	api, err := resultsapi.New(env.Config.API.URL,
		resultsapi.WithHTTPClient(env.API),
		resultsapi.WithNamespace(flow.Namespace()),
		resultsapi.WithStrictStatus(flow.StrictStatus()),
		resultsapi.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("results api: %w", err)
	}

	pages := web.NewFetcher(env.Publisher, pageTimeout, "page")
	documents := web.NewFetcher(env.Publisher, documentTimeout, "document")

	var (
		locator   domain.SourceLocator
		extractor domain.Extractor
	)
	switch flow.Kind() {
	case domain.KindImage:
		if engines.OCR == nil {
			return nil, fmt.Errorf("flow %s needs an OCR engine", flowName)
		}
		rule := source.ImageRule{Attrs: flow.ImageAttrs(), Class: flow.ImageClass()}
		locator = source.NewPageImage(pages, flow.Pages(), rule, logger)
		extractor = extract.Multi{domain.KindImage: extract.NewImage(engines.OCR)}
	case domain.KindPDF:
		if engines.PDF == nil || engines.Raster == nil {
			return nil, fmt.Errorf("flow %s needs pdf engines", flowName)
		}
		locator = source.NewListing(pages, flow.ListingURL(), flow.ListingSelector(), flow.Slots(), logger)
		extractor = extract.Multi{domain.KindPDF: extract.NewPDF(engines.PDF, engines.Raster, pdfRenderScale)}
	default:
		return nil, fmt.Errorf("flow %s: %w: %q", flowName, domain.ErrUnsupported, flow.Kind())
	}

	var planner plan.Planner = plan.NewCumulative(flow.Windows())
	if flow.Planner() == config.PlannerSequential {
		planner = plan.NewSequential(flow.Windows())
	}

	return crawl.NewService(crawl.Deps{
		Flow:      flow.Namespace(),
		Windows:   flow.Windows(),
		State:     state.NewFetcher(api, flow.FailOpen(), logger),
		Planner:   planner,
		Locator:   locator,
		Documents: documents,
		Extractor: extractor,
		Publisher: api,
		Encoder:   snapshot.JPEGEncoder{Quality: env.Config.SnapshotQuality},
		Logger:    logger,
	}), nil
}

// NewLucky собирает сервис заполнения счастливых чисел.
func NewLucky(env Env) (*lucky.Service, error) {
	api, err := resultsapi.New(env.Config.API.URL,
		resultsapi.WithHTTPClient(env.API),
		resultsapi.WithLogger(env.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("results api: %w", err)
	}
	return lucky.NewService(api, env.Sources.LuckyTypes(), nil, env.Logger), nil
}
