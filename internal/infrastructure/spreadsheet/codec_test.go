package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCodec_AppendKeepsExistingRows(t *testing.T) {
	codec := NewCodec()
	rows := [][]string{
		{"Recording Name", "Campaign Number"},
		{"recordings/1700000000000-consent.webm", "CAMP-7"},
	}

	data, err := codec.Encode(rows)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rows, decoded)

	decoded = append(decoded, []string{"recordings/1700000000001-consent.webm", "N/A"})
	data, err = codec.Encode(decoded)
	require.NoError(t, err)

	again, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, rows, again[:2])
	assert.Equal(t, []string{"recordings/1700000000001-consent.webm", "N/A"}, again[2])
}

func TestCodec_ReadsFirstSheetOfForeignWorkbook(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Recording Name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Campaign Number"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "k"))
	require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := NewCodec().Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Recording Name", "Campaign Number"}, {"k"}}, rows)
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := NewCodec().Decode([]byte("definitely not a zip archive"))
	assert.Error(t, err)
}

func TestCodec_ContentType(t *testing.T) {
	assert.Equal(t, ContentType, NewCodec().ContentType())
}
