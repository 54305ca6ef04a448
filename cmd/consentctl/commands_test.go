package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/consent-api/internal/client"
)

type upload struct {
	filename  string
	data      []byte
	mediaType string
	campaign  string
}

type fakeClient struct {
	baseURL   string
	uploads   []upload
	uploadErr error
	ledger    *client.Ledger
	languages *client.Languages
}

func (f *fakeClient) UploadRecording(ctx context.Context, filename string, data []byte, mediaType, campaign string) (*client.Recording, error) {
	f.uploads = append(f.uploads, upload{filename: filename, data: data, mediaType: mediaType, campaign: campaign})
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &client.Recording{Key: "recordings/1-consent.webm", URL: "file:///tmp/recordings/1-consent.webm", Mime: mediaType, Bytes: int64(len(data)), Campaign: campaign, LedgerUpdated: true}, nil
}

func (f *fakeClient) Ledger(ctx context.Context) (*client.Ledger, error) {
	return f.ledger, nil
}

func (f *fakeClient) Languages(ctx context.Context) (*client.Languages, error) {
	return f.languages, nil
}

func run(t *testing.T, fake *fakeClient, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommandWith(func(baseURL string) apiClient {
		fake.baseURL = baseURL
		return fake
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUploadCommand(t *testing.T) {
	t.Setenv("CONSENT_API_URL", "http://consent.internal:4000")
	fake := &fakeClient{}
	path := writeTemp(t, "clip.webm", "hello consent")

	out, err := run(t, fake, "upload", path, "--campaign", "CAMP-7")
	require.NoError(t, err)

	assert.Equal(t, "http://consent.internal:4000", fake.baseURL)
	require.Len(t, fake.uploads, 1)
	assert.Equal(t, "clip.webm", fake.uploads[0].filename)
	assert.Equal(t, "hello consent", string(fake.uploads[0].data))
	assert.Equal(t, "CAMP-7", fake.uploads[0].campaign)
	assert.Contains(t, out, "Uploaded recordings/1-consent.webm")
	assert.NotContains(t, out, "Warning")
}

func TestUploadCommand_Errors(t *testing.T) {
	fake := &fakeClient{}

	_, err := run(t, fake, "upload", filepath.Join(t.TempDir(), "missing.webm"))
	assert.Error(t, err)

	_, err = run(t, fake, "upload", writeTemp(t, "empty.webm", ""))
	assert.ErrorContains(t, err, "is empty")
	assert.Empty(t, fake.uploads)

	fake.uploadErr = errors.New("status 502")
	_, err = run(t, fake, "--api-url", "http://other:1", "upload", writeTemp(t, "clip.webm", "x"))
	assert.ErrorContains(t, err, "status 502")
	assert.Equal(t, "http://other:1", fake.baseURL)
}

func TestLedgerCommand(t *testing.T) {
	fake := &fakeClient{ledger: &client.Ledger{
		Key:   "consent-ledger.xlsx",
		Total: 2,
		Entries: []client.LedgerEntry{
			{RecordingKey: "recordings/1-consent.webm", Campaign: "CAMP-7"},
			{RecordingKey: "recordings/2-consent.webm", Campaign: "N/A"},
		},
	}}

	out, err := run(t, fake, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "recordings/2-consent.webm")
	assert.Contains(t, out, "CAMP-7")
	assert.Contains(t, out, "2 entries in consent-ledger.xlsx")

	fake.ledger = &client.Ledger{Key: "consent-ledger.xlsx"}
	out, err = run(t, fake, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, "is empty")
}

func TestLanguagesCommand_MarksDefault(t *testing.T) {
	fake := &fakeClient{languages: &client.Languages{
		Default: "en",
		Languages: []client.Language{
			{Code: "en", Name: "English", NativeName: "English"},
			{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
		},
	}}

	out, err := run(t, fake, "languages")
	require.NoError(t, err)
	assert.Contains(t, out, "en *")
	assert.Contains(t, out, "ಕನ್ನಡ")
	assert.NotContains(t, out, "kn *")
}

func TestRecordCommand_UploadsReplayedSource(t *testing.T) {
	fake := &fakeClient{}
	content := strings.Repeat("consent-chunk-", 100)
	path := writeTemp(t, "source.txt", content)

	out, err := run(t, fake, "record", "--source", path, "--campaign", "CAMP-9", "--interval", "1ms", "--duration", "10s")
	require.NoError(t, err)

	require.Len(t, fake.uploads, 1)
	assert.Equal(t, content, string(fake.uploads[0].data))
	assert.Equal(t, "CAMP-9", fake.uploads[0].campaign)
	assert.True(t, strings.HasPrefix(fake.uploads[0].filename, "consent."))
	assert.Contains(t, out, "Captured")
	assert.Contains(t, out, "Uploaded")
}

func TestRecordCommand_MissingSource(t *testing.T) {
	fake := &fakeClient{}

	_, err := run(t, fake, "record", "--source", filepath.Join(t.TempDir(), "nope.webm"))
	assert.Error(t, err)
	assert.Empty(t, fake.uploads)

	_, err = run(t, fake, "record")
	assert.ErrorContains(t, err, "source")
}
