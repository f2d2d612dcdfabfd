package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradefolio/journal-api/internal/matching"
	"github.com/tradefolio/journal-api/internal/types"
)

// Processor runs pending import jobs in the background: it loads a
// committed upload's trade records, runs the FIFO matcher and persists the
// matched trades and open positions.
type Processor struct {
	db           *Database
	processDelay time.Duration // Time between job processing attempts
}

func NewProcessor(db *Database, processDelay time.Duration) *Processor {
	return &Processor{
		db:           db,
		processDelay: processDelay,
	}
}

// Start begins the import job processing loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "import_processor").Logger()
	logger.Info().Msg("starting import processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down import processor")
			return
		case <-ticker.C:
			if err := p.ProcessPendingJobs(); err != nil {
				logger.Error().Err(err).Msg("failed to process pending import jobs")
			}
		}
	}
}

// ProcessPendingJobs runs every pending job once. Exported so tests and
// callers that want synchronous processing can drive the loop directly.
func (p *Processor) ProcessPendingJobs() error {
	logger := log.With().Str("component", "import_processor").Logger()

	jobs, err := p.db.GetPendingJobs()
	if err != nil {
		return err
	}

	if len(jobs) > 0 {
		logger.Info().Int("pending_count", len(jobs)).Msg("processing pending import jobs")
	}

	for _, job := range jobs {
		job.Status = JobStatusProcessing
		job.UpdatedAt = time.Now()
		if err := p.db.UpdateJob(&job); err != nil {
			logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to mark job processing")
			continue
		}

		if err := p.runJob(&job); err != nil {
			logger.Error().Err(err).Str("job_id", job.JobID).Msg("import job failed")
			job.Status = JobStatusFailed
			job.Error = err.Error()
			job.UpdatedAt = time.Now()
			if err := p.db.UpdateJob(&job); err != nil {
				logger.Error().Err(err).Str("job_id", job.JobID).Msg("failed to update failed job")
			}
			continue
		}

		logger.Info().
			Str("job_id", job.JobID).
			Str("upload_id", job.UploadID).
			Msg("import job completed")
	}

	return nil
}

func (p *Processor) runJob(job *ImportJob) error {
	records, err := p.db.GetTradeRecordsByUpload(job.UploadID)
	if err != nil {
		return err
	}

	// Records come back in row_index order, so the matcher's file-order
	// tie-break sees the same sequence the user uploaded.
	rows := make([]types.TradeRow, len(records))
	for i, r := range records {
		rows[i] = types.TradeRow{
			Symbol:    r.Symbol,
			Side:      r.Side,
			Quantity:  r.Quantity,
			Price:     r.Price,
			Amount:    r.Amount,
			Timestamp: r.ExecutedAt,
		}
	}

	matched, open := matching.Match(rows)

	for i := range matched {
		matched[i].TradeID = uuid.New().String()
		matched[i].UploadID = job.UploadID
		matched[i].ClientID = job.ClientID
	}
	for i := range open {
		open[i].PositionID = uuid.New().String()
		open[i].UploadID = job.UploadID
		open[i].ClientID = job.ClientID
		open[i].CreatedAt = time.Now()
		open[i].UpdatedAt = time.Now()
	}

	return p.db.CompleteJob(job, matched, open)
}
