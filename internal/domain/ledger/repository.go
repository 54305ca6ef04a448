package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/consent-api/internal/domain/objectstore"
)

// Repository reads and rewrites the ledger document stored under one key.
//
// Append is a plain read-modify-write and is not safe to run concurrently
// with itself: two overlapping appends can both read the same prior state
// and one row is lost. Route appends through a Writer to serialize them.
type Repository struct {
	store  objectstore.Store
	codec  Codec
	key    string
	log    zerolog.Logger
	tracer trace.Tracer
}

func NewRepository(store objectstore.Store, codec Codec, key string, log zerolog.Logger) *Repository {
	return &Repository{
		store:  store,
		codec:  codec,
		key:    key,
		log:    log.With().Str("component", "ledger-repository").Str("ledger_key", key).Logger(),
		tracer: otel.Tracer("consent-api/ledger"),
	}
}

// Key returns the well-known storage key of the ledger document.
func (r *Repository) Key() string {
	return r.key
}

// Load fetches and decodes the ledger. A missing document yields a
// header-only document; any other failure wraps ErrReadFailed.
func (r *Repository) Load(ctx context.Context) (*Document, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			r.log.Debug().Msg("ledger does not exist yet, starting a new document")
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrReadFailed, r.key, err)
	}

	rows, err := r.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrReadFailed, r.key, err)
	}
	doc, err := ParseDocument(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return doc, nil
}

// Append adds entry as the last row and rewrites the whole document.
func (r *Repository) Append(ctx context.Context, entry Entry) (err error) {
	ctx, span := r.tracer.Start(ctx, "ledger.Append", trace.WithAttributes(
		attribute.String("ledger.key", r.key),
		attribute.String("recording.key", entry.RecordingKey),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	doc, err := r.Load(ctx)
	if err != nil {
		return err
	}
	doc.Append(entry)

	data, err := r.codec.Encode(doc.Rows())
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWriteFailed, err)
	}
	if _, err := r.store.Put(ctx, r.key, data, r.codec.ContentType()); err != nil {
		return fmt.Errorf("%w: store %s: %w", ErrWriteFailed, r.key, err)
	}

	r.log.Info().
		Str("recording_key", entry.RecordingKey).
		Str("campaign", entry.Campaign).
		Int("entries", doc.Len()).
		Msg("ledger entry appended")
	return nil
}

// Entries returns the current ledger rows excluding the header.
func (r *Repository) Entries(ctx context.Context) ([]Entry, error) {
	doc, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries(), nil
}
