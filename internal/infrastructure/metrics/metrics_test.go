package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"jan-server/services/consent-api/internal/domain/ledger"
)

type stubAppender struct{ err error }

func (s stubAppender) Append(ctx context.Context, entry ledger.Entry) error { return s.err }

func TestInstrumentLedger_CountsOutcomes(t *testing.T) {
	success := testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("success"))
	readFailed := testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("read_failed"))
	writeFailed := testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("write_failed"))

	assert.NoError(t, InstrumentLedger(stubAppender{}).Append(context.Background(), ledger.Entry{}))

	readErr := fmt.Errorf("%w: denied", ledger.ErrReadFailed)
	assert.ErrorIs(t, InstrumentLedger(stubAppender{err: readErr}).Append(context.Background(), ledger.Entry{}), ledger.ErrReadFailed)
	assert.Error(t, InstrumentLedger(stubAppender{err: errors.New("boom")}).Append(context.Background(), ledger.Entry{}))

	assert.Equal(t, success+1, testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("success")))
	assert.Equal(t, readFailed+1, testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("read_failed")))
	assert.Equal(t, writeFailed+1, testutil.ToFloat64(LedgerAppendsTotal.WithLabelValues("write_failed")))
}

func TestCaptureObserver_TracksActiveSessions(t *testing.T) {
	before := testutil.ToFloat64(ActiveCaptureSessions)
	uploaded := testutil.ToFloat64(CaptureSessionsTotal.WithLabelValues("uploaded"))

	var observer CaptureObserver
	observer.SessionStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(ActiveCaptureSessions))

	observer.SessionFinished("uploaded")
	assert.Equal(t, before, testutil.ToFloat64(ActiveCaptureSessions))
	assert.Equal(t, uploaded+1, testutil.ToFloat64(CaptureSessionsTotal.WithLabelValues("uploaded")))
}
