//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	domrepo "FGReport/internal/domain/repository"
	"FGReport/internal/usecase"
	"FGReport/pkg/config"
	"FGReport/pkg/metrics"
	"FGReport/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),
		ProvideCache,

		// Inputs
		ProvideHTTPClient,
		ProvideInputFetcher,
		ProvideResolver,
		ProvideObservationSource,
		ProvideForwardSummarySource,
		ProvideSummarySource,
		ProvideNotesSource,

		// Rendering and outputs
		ProvideChartRenderer,
		ProvideReportBuilder,
		ProvideReportWriter,
		ProvideReportIndex,
		ProvideCellArchive,
		ProvideEventPublisher,

		// Use cases
		ProvidePipelineConfig,
		wire.Struct(new(usecase.PipelineDeps), "*"),
		ProvidePipeline,

		// Application server
		ProvideReportsHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
