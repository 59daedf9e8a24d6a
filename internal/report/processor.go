package report

import (
	"log/slog"
)

// Processor runs the full sheet pipeline: read, normalize, rewrite
// categories, aggregate aging buckets, format for display.
type Processor struct {
	logger     *slog.Logger
	reader     *Reader
	normalizer *Normalizer
	rewriter   *CategoryRewriter
	aggregator *AgingAggregator
	formatter  *DisplayFormatter
}

// ProcessorConfig tunes the pipeline.
type ProcessorConfig struct {
	MaxFileSize    int64 // bytes; zero disables the gate
	HeaderScanRows int
}

// NewProcessor creates a processor with the given gates.
func NewProcessor(logger *slog.Logger, cfg ProcessorConfig) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report"))
	return &Processor{
		logger:     logger,
		reader:     NewReader(logger, cfg.MaxFileSize),
		normalizer: NewNormalizer(logger, cfg.HeaderScanRows),
		rewriter:   NewCategoryRewriter(logger),
		aggregator: NewAgingAggregator(logger),
		formatter:  NewDisplayFormatter(logger),
	}
}

// Process reads the workbook at path and returns the processed sheet.
func (p *Processor) Process(path string) (*Sheet, error) {
	rows, err := p.reader.Read(path)
	if err != nil {
		return nil, err
	}
	return p.ProcessRows(rows)
}

// ProcessRows runs the pipeline on already-loaded raw rows.
func (p *Processor) ProcessRows(rows [][]string) (*Sheet, error) {
	sheet, err := p.normalizer.Normalize(rows)
	if err != nil {
		return nil, err
	}

	p.rewriter.Rewrite(sheet)
	p.aggregator.Aggregate(sheet)
	p.formatter.Format(sheet)

	p.logger.Info("sheet processed",
		slog.Int("row_count", len(sheet.Rows)),
		slog.Int("column_count", len(sheet.Columns)))
	return sheet, nil
}
