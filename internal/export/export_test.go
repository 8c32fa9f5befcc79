package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/event-scout/internal/event"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func sampleEvents() []*event.Event {
	day := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	return []*event.Event{
		{
			ID:          "a",
			Name:        "Library Book Sale",
			Date:        day.Format(event.DisplayLayout),
			DateSortKey: day.UnixMilli(),
			Time:        "10:00 AM",
			Description: "Thousands of books, all priced to go",
			Location:    "Riverside Library",
			URL:         "https://riverside.example.org/sale",
			Source:      event.SourcePattern,
			Confidence:  event.ConfidenceHigh,
		},
		{
			ID:          "b",
			Name:        "Poetry Open Mic",
			Date:        event.DateNotFound,
			Description: event.NoDescription,
			Location:    event.LocationNotSpecified,
			Source:      event.SourceFreeText,
			Confidence:  event.ConfidenceLow,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"CSV", FormatCSV, false},
		{"out/events.ics", FormatICS, false},
		{"Events_2026-10-15.XLSX", FormatXLSX, false},
		{"events.pdf", "", true},
		{"json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultFileName(t *testing.T) {
	assert.Equal(t, "Events_2026-10-15.xlsx", DefaultFileName(FormatXLSX, testNow))
	assert.Equal(t, "Events_2026-10-15.csv", DefaultFileName(FormatCSV, testNow))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleEvents(), testNow))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Event Name", "Date", "Time", "Location", "Description", "Source", "Confidence", "URL"}, rows[0])
	assert.Equal(t, []string{
		"Library Book Sale", "November 2, 2026", "10:00 AM", "Riverside Library",
		"Thousands of books, all priced to go", "Pattern Detection", "High", "https://riverside.example.org/sale",
	}, rows[1])
	assert.Equal(t, event.DateNotFound, rows[2][1])
	assert.Equal(t, "", rows[2][2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleEvents(), testNow))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Event Name", rows[0][0])
	assert.Equal(t, "URL", rows[0][7])
	assert.Equal(t, "Library Book Sale", rows[1][0])
	assert.Equal(t, "High", rows[1][6])
	assert.Equal(t, "Poetry Open Mic", rows[2][0])

	widths := map[string]float64{"A": 30, "B": 15, "C": 10, "D": 25, "E": 50, "F": 20, "G": 10, "H": 30}
	for col, want := range widths {
		got, err := f.GetColWidth(SheetName, col)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 0.01, "column %s", col)
	}
}

func TestWriteICS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatICS, sampleEvents(), testNow))

	ics := buf.String()
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"), "the undated event is skipped")
	assert.Contains(t, ics, "SUMMARY:Library Book Sale")
}

func TestWrite_NoEvents(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, FormatCSV, nil, testNow), ErrNoEvents)

	undated := sampleEvents()[1:]
	assert.ErrorIs(t, Write(&buf, FormatICS, undated, testNow), ErrNoEvents)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName(FormatCSV, testNow))
	require.NoError(t, WriteFile(path, sampleEvents(), testNow))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Event Name,Date,Time"))

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "events.txt"), sampleEvents(), testNow))
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(in.Body)
	f.body = buf.Bytes()
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{client: fake, bucket: "exports", region: "us-west-2", prefix: "event-scout/"}

	data, err := Render(FormatCSV, sampleEvents(), testNow)
	require.NoError(t, err)

	res, err := u.Upload(context.Background(), "Events_2026-10-15.csv", data, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "event-scout/Events_2026-10-15.csv", res.Key)
	assert.Equal(t, "abc123", res.ETag)
	assert.Equal(t, "https://exports.s3.us-west-2.amazonaws.com/event-scout/Events_2026-10-15.csv", res.Location)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.Equal(t, "exports", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "text/csv; charset=utf-8", aws.ToString(fake.input.ContentType))
	assert.Equal(t, data, fake.body)

	fake.err = errors.New("access denied")
	_, err = u.Upload(context.Background(), "x.csv", data, FormatCSV)
	assert.Error(t, err)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{})
	assert.Error(t, err)
}
