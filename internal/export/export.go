// Package export writes the document collection as CSV and publishes
// snapshots to object storage.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/storage"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/metrics"
)

var exportLog = logger.Named("export")

// KeyPrefix is where snapshots are stored in the bucket.
const KeyPrefix = "exports/"

const contentType = "text/csv; charset=utf-8"

// utf8BOM lets spreadsheet programs detect the Thai text as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Labels are the configurable column titles.
type Labels struct {
	DirectorName string
	Departments  [document.DepartmentCount]string
}

// WriteCSV writes a header row and one row per document, in the given order.
func WriteCSV(w io.Writer, docs []document.Document, labels Labels) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := []string{"เลขที่เอกสาร", "วันที่เสนอ", "ชื่อผู้เสนอ", "กลุ่มสาระ", "วัตถุประสงค์"}
	header = append(header, labels.Departments[:]...)
	header = append(header, labels.DirectorName, "หมายเหตุ")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range docs {
		row := []string{d.DocNumber, d.SubmissionDate.String(), d.Proposer, d.DepartmentGroup, d.Objective}
		for _, s := range d.DepartmentStatuses() {
			row = append(row, string(s))
		}
		row = append(row, string(d.DirectorStatus), d.Notes)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ObjectStore is the subset of storage.MinIOStorage the exporter needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]storage.Object, error)
}

// Snapshot is a published export.
type Snapshot struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Exporter struct {
	store  ObjectStore
	labels Labels
	expiry time.Duration
	now    func() time.Time
}

func NewExporter(store ObjectStore, labels Labels, expiry time.Duration) *Exporter {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Exporter{store: store, labels: labels, expiry: expiry, now: time.Now}
}

// WithClock replaces the clock used for snapshot keys.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

func (e *Exporter) Labels() Labels { return e.labels }

// Publish uploads docs as a CSV snapshot and returns a presigned link to it.
func (e *Exporter) Publish(ctx context.Context, docs []document.Document) (Snapshot, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, docs, e.labels); err != nil {
		return Snapshot{}, fmt.Errorf("encode csv: %w", err)
	}
	now := e.now().UTC()
	key := KeyPrefix + "documents-" + now.Format("20060102T150405.000Z") + ".csv"
	if err := e.store.UploadFile(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), contentType); err != nil {
		return Snapshot{}, fmt.Errorf("upload %s: %w", key, err)
	}
	url, err := e.store.GetPresignedURL(ctx, key, e.expiry)
	if err != nil {
		return Snapshot{}, fmt.Errorf("presign %s: %w", key, err)
	}
	metrics.ExportsPublished.Inc()
	exportLog.Infof("published %s (%d documents)", key, len(docs))
	return Snapshot{Key: key, URL: url, Count: len(docs), ExpiresAt: now.Add(e.expiry)}, nil
}

// List returns previously published snapshots, newest first.
func (e *Exporter) List(ctx context.Context) ([]storage.Object, error) {
	objs, err := e.store.ListObjects(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if objs == nil {
		objs = []storage.Object{}
	}
	return objs, nil
}
