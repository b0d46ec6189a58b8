package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/storage"
)

var labels = Labels{
	DirectorName: "ผู้อำนวยการ",
	Departments:  [4]string{"ฝ่ายแผนงานและบริหาร", "ฝ่ายพัสดุ", "ฝ่ายการเงิน", "ฝ่ายงบประมาณ"},
}

func sampleDocs() []document.Document {
	return []document.Document{{
		ID:              "1",
		DocNumber:       "SPK-2025-001",
		SubmissionDate:  document.NewDate(2025, time.June, 1),
		Proposer:        "ครูสมชาย",
		DepartmentGroup: "ศิลปะ",
		Objective:       "ซื้อสี, พู่กัน",
		StatusDept1:     document.StatusApproved,
		StatusDept2:     document.StatusPending,
		StatusDept3:     document.StatusPending,
		StatusDept4:     document.StatusNotApplicable,
		DirectorStatus:  document.DirectorInProgress,
		Notes:           "line one\nline two",
	}}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDocs(), labels))
	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 11)
	require.Equal(t, "ฝ่ายพัสดุ", rows[0][6])
	require.Equal(t, "ผู้อำนวยการ", rows[0][9])
	require.Equal(t, []string{
		"SPK-2025-001", "2025-06-01", "ครูสมชาย", "ศิลปะ", "ซื้อสี, พู่กัน",
		string(document.StatusApproved), string(document.StatusPending), string(document.StatusPending),
		string(document.StatusNotApplicable), string(document.DirectorInProgress), "line one\nline two",
	}, rows[1])
}

type fakeStore struct {
	objects   map[string][]byte
	uploadErr error
}

func (f *fakeStore) UploadFile(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return errors.New("size mismatch")
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStore) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://minio.test/doctracker/" + key + "?X-Amz-Expires=" + expires.String(), nil
}

func (f *fakeStore) ListObjects(ctx context.Context, prefix string) ([]storage.Object, error) {
	var out []storage.Object
	for k, v := range f.objects {
		out = append(out, storage.Object{Key: k, Size: int64(len(v))})
	}
	return out, nil
}

func TestPublish(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}}
	now := time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC)
	e := NewExporter(store, labels, 0).WithClock(func() time.Time { return now })

	snap, err := e.Publish(context.Background(), sampleDocs())
	require.NoError(t, err)
	require.Equal(t, "exports/documents-20250610T093000.000Z.csv", snap.Key)
	require.Equal(t, 1, snap.Count)
	require.Equal(t, now.Add(time.Hour), snap.ExpiresAt)
	require.Contains(t, snap.URL, snap.Key)
	require.Contains(t, store.objects, snap.Key)

	objs, err := e.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 1)
}

func TestPublishUploadFailure(t *testing.T) {
	store := &fakeStore{objects: map[string][]byte{}, uploadErr: errors.New("bucket gone")}
	_, err := NewExporter(store, labels, time.Minute).Publish(context.Background(), nil)
	require.ErrorContains(t, err, "bucket gone")
}
