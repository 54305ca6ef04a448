package capture_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/consent-api/internal/domain/capture"
)

type fakeStream struct {
	mu       sync.Mutex
	callback func([]byte) error
	releases atomic.Int32
}

func (f *fakeStream) OnChunk(fn func([]byte) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = fn
}

func (f *fakeStream) MediaType() string { return "video/webm" }

func (f *fakeStream) Release() error {
	f.releases.Add(1)
	return nil
}

func (f *fakeStream) emit(chunk []byte) error {
	f.mu.Lock()
	fn := f.callback
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(chunk)
}

type fakeDevice struct {
	stream   *fakeStream
	err      error
	acquires atomic.Int32
}

func (d *fakeDevice) Acquire(ctx context.Context) (capture.Stream, error) {
	d.acquires.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

func newSession(device capture.Device, duration time.Duration) *capture.Session {
	return capture.NewSession("sess_test", device, capture.Options{
		Duration: duration,
		Logger:   zerolog.Nop(),
	})
}

func TestSession_StopConcatenatesChunksInOrder(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, time.Minute)

	require.NoError(t, session.Start(context.Background()))
	assert.Equal(t, capture.StateRecording, session.State())

	stream.emit([]byte("chunk-1|"))
	stream.emit([]byte("chunk-2|"))
	stream.emit(nil)
	stream.emit([]byte("chunk-3"))

	blob, ok := session.Stop()
	require.True(t, ok)
	require.NotNil(t, blob)
	assert.Equal(t, "chunk-1|chunk-2|chunk-3", string(blob.Data))
	assert.Equal(t, "video/webm", blob.MediaType)
	assert.Equal(t, 3, blob.Chunks)
	assert.Equal(t, capture.StopExplicit, blob.Reason)
	assert.Equal(t, capture.StateCompleted, session.State())
	assert.Equal(t, int32(1), stream.releases.Load())

	select {
	case <-session.Done():
	default:
		t.Fatal("done channel not closed after stop")
	}
}

func TestSession_ChunksAfterStopAreDropped(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, time.Minute)
	require.NoError(t, session.Start(context.Background()))

	stream.emit([]byte("kept"))
	blob, ok := session.Stop()
	require.True(t, ok)

	assert.ErrorIs(t, stream.emit([]byte("late")), capture.ErrInvalidState)
	assert.Equal(t, "kept", string(blob.Data))
	assert.Equal(t, "kept", string(session.Blob().Data))
}

func TestSession_CopiesChunkBuffers(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, time.Minute)
	require.NoError(t, session.Start(context.Background()))

	buf := []byte("abc")
	stream.emit(buf)
	copy(buf, "xyz")

	blob, ok := session.Stop()
	require.True(t, ok)
	assert.Equal(t, "abc", string(blob.Data))
}

func TestSession_StopWhenNotRecordingIsNoop(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, time.Minute)

	blob, ok := session.Stop()
	assert.False(t, ok)
	assert.Nil(t, blob)
	assert.Equal(t, capture.StateIdle, session.State())

	require.NoError(t, session.Start(context.Background()))
	_, ok = session.Stop()
	require.True(t, ok)

	blob, ok = session.Stop()
	assert.False(t, ok)
	assert.Nil(t, blob)
	assert.Equal(t, int32(1), stream.releases.Load())
}

func TestSession_DeviceUnavailableKeepsIdle(t *testing.T) {
	device := &fakeDevice{err: errors.New("permission denied")}
	session := newSession(device, time.Minute)

	err := session.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrDeviceUnavailable)
	assert.Equal(t, capture.StateIdle, session.State())

	device.err = nil
	device.stream = &fakeStream{}
	require.NoError(t, session.Start(context.Background()))
	assert.Equal(t, capture.StateRecording, session.State())
	assert.Equal(t, int32(2), device.acquires.Load())
}

func TestSession_StartTwiceFails(t *testing.T) {
	session := newSession(&fakeDevice{stream: &fakeStream{}}, time.Minute)
	require.NoError(t, session.Start(context.Background()))

	err := session.Start(context.Background())
	assert.ErrorIs(t, err, capture.ErrInvalidState)

	session.Stop()
	err = session.Start(context.Background())
	assert.ErrorIs(t, err, capture.ErrInvalidState)
}

func TestSession_TimeoutFinalizes(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, 20*time.Millisecond)
	require.NoError(t, session.Start(context.Background()))
	stream.emit([]byte("hello"))

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on timeout")
	}

	blob := session.Blob()
	require.NotNil(t, blob)
	assert.Equal(t, "hello", string(blob.Data))
	assert.Equal(t, capture.StopTimeout, blob.Reason)
	assert.Equal(t, time.Duration(0), session.Remaining())
	assert.Equal(t, int32(1), stream.releases.Load())

	_, ok := session.Stop()
	assert.False(t, ok)
}

func TestSession_StopRacingTimeoutFinalizesOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		stream := &fakeStream{}
		session := newSession(&fakeDevice{stream: stream}, 2*time.Millisecond)
		require.NoError(t, session.Start(context.Background()))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(2 * time.Millisecond)
				if _, ok := session.Stop(); ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		<-session.Done()

		assert.LessOrEqual(t, wins.Load(), int32(1))
		assert.Equal(t, int32(1), stream.releases.Load())
		require.NotNil(t, session.Blob())
	}
}

func TestSession_LimitStopsRecording(t *testing.T) {
	stream := &fakeStream{}
	session := capture.NewSession("sess_limit", &fakeDevice{stream: stream}, capture.Options{
		Duration: time.Minute,
		MaxBytes: 6,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, session.Start(context.Background()))

	require.NoError(t, stream.emit([]byte("abc")))
	require.NoError(t, stream.emit([]byte("def")))
	assert.ErrorIs(t, stream.emit([]byte("ghi")), capture.ErrBufferFull)

	select {
	case <-session.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop at the byte limit")
	}
	blob := session.Blob()
	require.NotNil(t, blob)
	assert.Equal(t, "abcdef", string(blob.Data))
	assert.Equal(t, capture.StopLimit, blob.Reason)

	assert.ErrorIs(t, stream.emit([]byte("k")), capture.ErrInvalidState)
}

func TestSession_AbortReleasesWithoutBlob(t *testing.T) {
	stream := &fakeStream{}
	session := newSession(&fakeDevice{stream: stream}, time.Minute)
	require.NoError(t, session.Start(context.Background()))
	stream.emit([]byte("discard"))

	session.Abort()

	assert.Equal(t, capture.StateCompleted, session.State())
	assert.Nil(t, session.Blob())
	assert.Equal(t, capture.StopAborted, session.Reason())
	assert.Equal(t, int32(1), stream.releases.Load())

	idle := newSession(&fakeDevice{stream: &fakeStream{}}, time.Minute)
	idle.Abort()
	assert.Equal(t, capture.StateCompleted, idle.State())
	<-idle.Done()
}

func TestSession_Remaining(t *testing.T) {
	session := newSession(&fakeDevice{stream: &fakeStream{}}, time.Minute)
	assert.Equal(t, time.Minute, session.Remaining())

	require.NoError(t, session.Start(context.Background()))
	remaining := session.Remaining()
	assert.Greater(t, remaining, 50*time.Second)
	assert.LessOrEqual(t, remaining, time.Minute)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", capture.StateIdle.String())
	assert.Equal(t, "recording", capture.StateRecording.String())
	assert.Equal(t, "completed", capture.StateCompleted.String())
}
