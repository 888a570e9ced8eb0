package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/receipt"
)

// Analysis outcomes reported to ReceiptMetrics
const (
	AnalysisOutcomeSuccess = "success"
	AnalysisOutcomeFailure = "failure"
)

// acceptedReceiptTypes maps sniffed content types to the extension used on disk
var acceptedReceiptTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// ReceiptUpload is an uploaded receipt file
type ReceiptUpload struct {
	Filename string
	Data     []byte
}

// ReceiptAnalysis is the pre-fill suggestion returned to the client.
// Fields the model could not read are nil.
type ReceiptAnalysis struct {
	Vendor          *string  `json:"vendor"`
	Amount          *float64 `json:"amount"`
	Date            *string  `json:"date"`
	ReceiptImageRef string   `json:"receiptImageRef"`
}

// ReceiptMetrics observes receipt analyses
type ReceiptMetrics interface {
	RecordAnalysis(outcome string, duration time.Duration)
}

// ReceiptServiceConfig holds receipt intake limits
type ReceiptServiceConfig struct {
	MaxBytes       int64
	PublicPrefix   string
	AnalyzeTimeout time.Duration
}

// ReceiptService stores receipt images and turns them into expense pre-fill data
type ReceiptService interface {
	Store(ctx context.Context, upload ReceiptUpload) (string, error)
	// Discard removes a receipt previously returned by Store
	Discard(ctx context.Context, ref string) error
	Analyze(ctx context.Context, upload ReceiptUpload) (*ReceiptAnalysis, error)
	Healthy(ctx context.Context) bool
}

type receiptServiceImpl struct {
	storage  port.FileStorage
	preparer port.ImagePreparer
	analyzer port.ReceiptAnalyzer
	metrics  ReceiptMetrics
	logger   Logger
	cfg      ReceiptServiceConfig
}

// NewReceiptService creates a new ReceiptService. metrics may be nil.
func NewReceiptService(
	storage port.FileStorage,
	preparer port.ImagePreparer,
	analyzer port.ReceiptAnalyzer,
	metrics ReceiptMetrics,
	logger Logger,
	cfg ReceiptServiceConfig,
) ReceiptService {
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = "/uploads"
	}
	return &receiptServiceImpl{
		storage:  storage,
		preparer: preparer,
		analyzer: analyzer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Store validates and saves the upload under a generated name and returns its public reference
func (s *receiptServiceImpl) Store(ctx context.Context, upload ReceiptUpload) (string, error) {
	_, ext, err := s.validate(upload)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := s.storage.Save(ctx, name, upload.Data); err != nil {
		s.logger.Error("Failed to store receipt", "error", err, "filename", upload.Filename)
		return "", fmt.Errorf("store receipt: %w", err)
	}

	ref := path.Join(s.cfg.PublicPrefix, name)
	s.logger.Info("Receipt stored", "ref", ref, "size", len(upload.Data), "original_name", upload.Filename)
	return ref, nil
}

func (s *receiptServiceImpl) Discard(ctx context.Context, ref string) error {
	dir, name := path.Split(ref)
	if path.Clean(dir) != path.Clean(s.cfg.PublicPrefix) || name == "" {
		return fmt.Errorf("discard receipt: %q is not a stored receipt", ref)
	}
	if err := s.storage.Delete(ctx, name); err != nil {
		s.logger.Error("Failed to discard receipt", "error", err, "ref", ref)
		return fmt.Errorf("discard receipt: %w", err)
	}
	s.logger.Info("Receipt discarded", "ref", ref)
	return nil
}

// Analyze stores the receipt, then asks the vision model for vendor, amount and date.
// The model is called once under the configured timeout.
func (s *receiptServiceImpl) Analyze(ctx context.Context, upload ReceiptUpload) (*ReceiptAnalysis, error) {
	mimeType, _, err := s.validate(upload)
	if err != nil {
		return nil, err
	}

	ref, err := s.Store(ctx, upload)
	if err != nil {
		return nil, err
	}

	image, imageType, err := s.preparer.Prepare(upload.Data, mimeType)
	if err != nil {
		s.record(AnalysisOutcomeFailure, 0)
		return nil, fmt.Errorf("%w: prepare image: %w", ErrAnalysisFailed, err)
	}

	if s.cfg.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AnalyzeTimeout)
		defer cancel()
	}

	start := time.Now()
	extraction, err := s.analyzer.Analyze(ctx, image, imageType)
	elapsed := time.Since(start)
	if err != nil {
		s.record(AnalysisOutcomeFailure, elapsed)
		s.logger.Error("Receipt analysis failed", "error", err, "ref", ref, "duration", elapsed.String())
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	s.record(AnalysisOutcomeSuccess, elapsed)

	result := &ReceiptAnalysis{ReceiptImageRef: ref}
	if extraction != nil {
		result.Vendor = extraction.Vendor
		result.Amount = extraction.Amount
		result.Date = receipt.NormalizeDate(extraction.Date)
	}

	s.logger.Info("Receipt analyzed", "ref", ref, "duration", elapsed.String(),
		"has_vendor", result.Vendor != nil, "has_amount", result.Amount != nil, "has_date", result.Date != nil)
	return result, nil
}

// Healthy reports whether the vision model endpoint answers
func (s *receiptServiceImpl) Healthy(ctx context.Context) bool {
	return s.analyzer.HealthCheck(ctx)
}

// validate returns the sniffed content type and on-disk extension of an acceptable upload
func (s *receiptServiceImpl) validate(upload ReceiptUpload) (string, string, error) {
	if len(upload.Data) == 0 {
		return "", "", ErrEmptyReceipt
	}
	if s.cfg.MaxBytes > 0 && int64(len(upload.Data)) > s.cfg.MaxBytes {
		return "", "", fmt.Errorf("%w: %d bytes exceeds %d", ErrReceiptTooLarge, len(upload.Data), s.cfg.MaxBytes)
	}

	detected := mimetype.Detect(upload.Data)
	for mimeType, ext := range acceptedReceiptTypes {
		if detected.Is(mimeType) {
			return mimeType, ext, nil
		}
	}
	return "", "", fmt.Errorf("%w: got %s", ErrUnsupportedReceipt, detected.String())
}

func (s *receiptServiceImpl) record(outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordAnalysis(outcome, d)
	}
}
