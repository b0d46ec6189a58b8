package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spk-docs/doctracker/internal/config"
)

const listing = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>exports</Name><Prefix>exports/</Prefix><KeyCount>2</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
<Contents><Key>exports/documents-a.csv</Key><LastModified>2025-06-01T08:00:00.000Z</LastModified><ETag>"a"</ETag><Size>10</Size><StorageClass>STANDARD</StorageClass></Contents>
<Contents><Key>exports/documents-b.csv</Key><LastModified>2025-06-02T08:00:00.000Z</LastModified><ETag>"b"</ETag><Size>20</Size><StorageClass>STANDARD</StorageClass></Contents>
</ListBucketResult>`

const accessDenied = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied.</Message><BucketName>exports</BucketName><RequestId>1</RequestId></Error>`

// newFakeS3 answers the handful of bucket calls the export storage makes.
// Listing answers with listStatus.
func newFakeS3(t *testing.T, listStatus int) *MinIOStorage {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		q := r.URL.Query()
		switch {
		case q.Has("location"):
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
		case q.Get("list-type") == "2" && listStatus != http.StatusOK:
			w.WriteHeader(listStatus)
			fmt.Fprint(w, accessDenied)
		case q.Get("list-type") == "2":
			fmt.Fprint(w, listing)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewMinIOStorage(context.Background(), &MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio-secret",
		Bucket:    "exports",
	})
	require.NoError(t, err)
	return s
}

func TestMinIOStorageListObjectsNewestFirst(t *testing.T) {
	s := newFakeS3(t, http.StatusOK)
	objs, err := s.ListObjects(context.Background(), "exports/")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	require.Equal(t, "exports/documents-b.csv", objs[0].Key)
	require.Equal(t, int64(20), objs[0].Size)
	require.True(t, objs[0].LastModified.Equal(time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)))
}

func TestMinIOStorageListObjectsError(t *testing.T) {
	s := newFakeS3(t, http.StatusForbidden)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := s.ListObjects(ctx, "exports/")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Access Denied")
}

func TestConfigFromDisablesWithoutEndpoint(t *testing.T) {
	require.Nil(t, ConfigFrom(config.StorageConfig{}))
	c := ConfigFrom(config.StorageConfig{Endpoint: "minio:9000", Bucket: "exports"})
	require.Equal(t, time.Hour, c.URLExpiry)
}
