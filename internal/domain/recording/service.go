package recording

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/consent-api/internal/config"
	"jan-server/services/consent-api/internal/domain/capture"
	"jan-server/services/consent-api/internal/domain/ledger"
	"jan-server/services/consent-api/internal/domain/objectstore"
)

const defaultSeed = "consent"

var (
	// ErrMissingPayload rejects an empty recording before any side effect.
	ErrMissingPayload = errors.New("recording payload is missing")
	// ErrPayloadTooLarge rejects a recording above the configured limit.
	ErrPayloadTooLarge = errors.New("recording payload is too large")
	// ErrStorageWriteFailed means the blob was not stored; the ledger is untouched.
	ErrStorageWriteFailed = errors.New("recording storage write failed")
)

// LedgerAppender records a stored recording in the attribution ledger.
type LedgerAppender interface {
	Append(ctx context.Context, entry ledger.Entry) error
}

// UploadRequest is a finalized recording ready for durable storage.
type UploadRequest struct {
	Data      []byte
	MediaType string
	// Campaign is the attribution token; blank falls back to the configured sentinel.
	Campaign string
	// Filename seeds the object key; blank derives one from the media type.
	Filename string
}

// RequestFromBlob adapts a finalized capture blob.
func RequestFromBlob(blob *capture.Blob, campaign string) UploadRequest {
	req := UploadRequest{Campaign: campaign}
	if blob != nil {
		req.Data = blob.Data
		req.MediaType = blob.MediaType
	}
	return req
}

// Result describes a stored recording.
type Result struct {
	Key       string
	Location  string
	MediaType string
	Bytes     int64
	Campaign  string
	StoredAt  time.Time
	// LedgerWarning is set when the blob was stored but the ledger append
	// failed. The recording is still durable and Location is usable.
	LedgerWarning error
}

// Service stores recordings and records them in the ledger.
type Service struct {
	cfg    *config.Config
	store  objectstore.Store
	ledger LedgerAppender
	keys   *KeyGenerator
	log    zerolog.Logger
	tracer trace.Tracer
}

func NewService(cfg *config.Config, store objectstore.Store, appender LedgerAppender, keys *KeyGenerator, log zerolog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		ledger: appender,
		keys:   keys,
		log:    log.With().Str("component", "recording-service").Logger(),
		tracer: otel.Tracer("consent-api/recording"),
	}
}

// Submit stores the recording, then appends it to the ledger. Storage must
// succeed before the ledger is touched; a ledger failure after that is
// reported through Result.LedgerWarning rather than as an error.
func (s *Service) Submit(ctx context.Context, req UploadRequest) (result *Result, err error) {
	ctx, span := s.tracer.Start(ctx, "recording.Submit", trace.WithAttributes(
		attribute.Int("recording.bytes", len(req.Data)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(req.Data) == 0 {
		return nil, ErrMissingPayload
	}
	if limit := s.cfg.MaxRecordingBytes; limit > 0 && int64(len(req.Data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, len(req.Data), limit)
	}

	mediaType := resolveMediaType(req.MediaType, req.Data)
	campaign := strings.TrimSpace(req.Campaign)
	if campaign == "" {
		campaign = s.cfg.DefaultCampaign
	}
	key := s.keys.Next(seedName(req.Filename, mediaType))
	span.SetAttributes(attribute.String("recording.key", key), attribute.String("recording.mime", mediaType))

	// Writes are not abandoned when the caller goes away, only when they time out.
	opCtx, cancel := s.operationContext(ctx)
	defer cancel()

	location, err := s.store.Put(opCtx, key, req.Data, mediaType)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("recording upload failed")
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	result = &Result{
		Key:       key,
		Location:  location,
		MediaType: mediaType,
		Bytes:     int64(len(req.Data)),
		Campaign:  campaign,
		StoredAt:  time.Now().UTC(),
	}

	if err := s.ledger.Append(opCtx, ledger.Entry{RecordingKey: key, Campaign: campaign}); err != nil {
		result.LedgerWarning = err
		span.AddEvent("ledger append failed", trace.WithAttributes(attribute.String("error", err.Error())))
		s.log.Warn().Err(err).Str("key", key).Msg("recording stored but ledger was not updated")
	}

	s.log.Info().
		Str("key", key).
		Str("campaign", campaign).
		Str("mime", mediaType).
		Int64("bytes", result.Bytes).
		Bool("ledger_updated", result.LedgerWarning == nil).
		Msg("recording stored")

	return result, nil
}

func (s *Service) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.cfg.StorageTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.cfg.StorageTimeout)
}

// resolveMediaType trusts the declared type unless it is missing or generic,
// in which case the payload is sniffed.
func resolveMediaType(declared string, data []byte) string {
	if base := baseMediaType(declared); base != "" && base != "application/octet-stream" {
		return base
	}
	return baseMediaType(mimetype.Detect(data).String())
}

func baseMediaType(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(value); err == nil {
		return parsed
	}
	return strings.ToLower(strings.TrimSpace(strings.SplitN(value, ";", 2)[0]))
}

func seedName(filename, mediaType string) string {
	seed := sanitizeSeed(filename)
	ext := ""
	if m := mimetype.Lookup(mediaType); m != nil {
		ext = m.Extension()
	}
	if seed == "" {
		return defaultSeed + ext
	}
	if filepath.Ext(seed) == "" {
		return seed + ext
	}
	return seed
}
