package importer

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/types"
	"github.com/tradefolio/journal-api/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrUploadNotFound   = errors.New("upload not found")
	ErrAlreadyCommitted = errors.New("upload has already been committed")
)

// Service handles the upload lifecycle: schema detection, mapping commit
// and import-job creation.
type Service struct {
	db *Database
}

// NewService creates a new importer service with the given database connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetDB exposes the importer database for the background processor.
func (s *Service) GetDB() *Database {
	return s.db
}

// Detect runs schema detection over the uploaded file and stores it for a
// later mapping commit. The raw body is retained until the commit step.
func (s *Service) Detect(clientID, filename string, data []byte) (*Upload, *SchemaReport, error) {
	sample, err := ReadSample(bytes.NewReader(data), SampleRowLimit)
	if err != nil {
		return nil, nil, err
	}

	report := DetectSchema(sample)

	upload := &Upload{
		UploadID:  uuid.New().String(),
		ClientID:  clientID,
		Filename:  filename,
		Status:    UploadStatusAwaitingMapping,
		RawData:   data,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.db.CreateUpload(upload); err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("upload_id", upload.UploadID).
		Str("client_id", clientID).
		Int("columns", len(report.Columns)).
		Float64("confidence", report.ConfidenceScore).
		Msg("schema detection completed")

	return upload, report, nil
}

// Commit re-parses the stored file with the confirmed mapping, validates
// every row and persists the batch plus a pending import job. Validation
// is fail-fast: any bad row aborts the whole commit.
func (s *Service) Commit(clientID, uploadID string, mapping ColumnMapping) (*ImportJob, error) {
	upload, err := s.db.GetUploadByIDAndClientID(uploadID, clientID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}
	if upload.Status != UploadStatusAwaitingMapping {
		return nil, ErrAlreadyCommitted
	}

	records, err := ReadAll(bytes.NewReader(upload.RawData))
	if err != nil {
		return nil, err
	}

	rows, err := NormalizeRows(records, mapping)
	if err != nil {
		return nil, err
	}

	tradeRecords := make([]types.TradeRecord, len(rows))
	for i, row := range rows {
		tradeRecords[i] = types.TradeRecord{
			RecordID:   uuid.New().String(),
			UploadID:   upload.UploadID,
			ClientID:   clientID,
			Symbol:     row.Symbol,
			Side:       row.Side,
			Quantity:   row.Quantity,
			Price:      row.Price,
			Amount:     row.Amount,
			RowIndex:   i,
			ExecutedAt: row.Timestamp,
		}
	}

	job := &ImportJob{
		JobID:     uuid.New().String(),
		UploadID:  upload.UploadID,
		ClientID:  clientID,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.db.CommitUpload(upload, tradeRecords, job); err != nil {
		return nil, err
	}

	log.Info().
		Str("upload_id", upload.UploadID).
		Str("job_id", job.JobID).
		Int("rows", len(tradeRecords)).
		Msg("upload committed")

	return job, nil
}

// GetUpload returns the upload and its import job, if one exists yet.
func (s *Service) GetUpload(clientID, uploadID string) (*Upload, *ImportJob, error) {
	upload, err := s.db.GetUploadByIDAndClientID(uploadID, clientID)
	if err != nil {
		return nil, nil, err
	}
	if upload == nil {
		return nil, nil, ErrUploadNotFound
	}

	job, err := s.db.GetJobByUploadID(uploadID)
	if err != nil {
		return nil, nil, err
	}
	return upload, job, nil
}

// GinHandlers contains HTTP handlers for upload endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for upload endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// UploadFileHandler handles POST requests with a multipart CSV file.
// It responds with the detected schema and the upload ID the client must
// use to commit a mapping.
func (h *GinHandlers) UploadFileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "A file upload is required")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			response.BadRequest(c, "Unable to open uploaded file")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		upload, report, err := h.service.Detect(clientID, fileHeader.Filename, data)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				response.BadRequest(c, parseErr.Error())
				return
			}
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{
			"upload_id": upload.UploadID,
			"filename":  upload.Filename,
			"status":    upload.Status,
			"schema":    report,
		})
	}
}

// CommitUploadHandler handles POST requests confirming a column mapping.
// Request body: {"mapping": {"symbol": "Ticker", ...}}
func (h *GinHandlers) CommitUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		uploadID := c.Param("upload_id")
		if uploadID == "" {
			response.BadRequest(c, "Upload ID is required")
			return
		}

		var body struct {
			Mapping ColumnMapping `json:"mapping" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		job, err := h.service.Commit(clientID, uploadID, body.Mapping)
		if err != nil {
			var rowErr *RowValidationError
			var parseErr *ParseError
			switch {
			case errors.Is(err, ErrUploadNotFound):
				response.NotFound(c, "Upload not found")
			case errors.Is(err, ErrAlreadyCommitted):
				response.Conflict(c, err.Error())
			case errors.As(err, &rowErr):
				response.ValidationFailed(c, rowErr.Error())
			case errors.As(err, &parseErr):
				response.BadRequest(c, parseErr.Error())
			default:
				response.InternalError(c, err.Error())
			}
			return
		}

		response.Success(c, job)
	}
}

// GetUploadHandler handles GET requests for upload and import-job status.
func (h *GinHandlers) GetUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		uploadID := c.Param("upload_id")
		upload, job, err := h.service.GetUpload(clientID, uploadID)
		if err != nil {
			if errors.Is(err, ErrUploadNotFound) {
				response.NotFound(c, "Upload not found")
				return
			}
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{
			"upload": upload,
			"job":    job,
		})
	}
}

func clientIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetClientID(claims)
}
