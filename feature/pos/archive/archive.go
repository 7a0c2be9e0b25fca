package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"
	"catalog-sync/feature/pos"

	"github.com/minio/minio-go/v7"
)

const prefix = "snapshots"

// Snapshot is the archived form of one fetched catalog.
type Snapshot struct {
	RunID     string            `json:"run_id"`
	TenantID  string            `json:"tenant_id"`
	FetchedAt time.Time         `json:"fetched_at"`
	Catalog   reconcile.Catalog `json:"catalog"`
}

// Entry is a listed snapshot object.
type Entry struct {
	Key          string    `json:"key"`
	RunID        string    `json:"run_id"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archive writes catalog snapshots to object storage.
type Archive struct {
	client storage.Client
	bucket string

	// ready is set once the bucket is known to exist. Failures are retried on
	// the next Save.
	mu    sync.Mutex
	ready bool
}

// New creates an archive on bucket.
func New(client storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Key returns snapshots/<tenant>/<provider>/<run id>.json.
func Key(tenantID string, provider pos.Provider, runID string) string {
	return path.Join(prefix, tenantID, provider.Slug(), runID+".json")
}

func (a *Archive) ensureBucket(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}
	a.ready = true
	return nil
}

// Save stores the snapshot and returns its object key.
func (a *Archive) Save(ctx context.Context, provider pos.Provider, snap Snapshot) (string, error) {
	if err := a.ensureBucket(ctx); err != nil {
		return "", err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := Key(snap.TenantID, provider, snap.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	return key, nil
}

// List returns the tenant's snapshots for provider, newest first.
func (a *Archive) List(ctx context.Context, tenantID string, provider pos.Provider) ([]Entry, error) {
	dir := path.Join(prefix, tenantID, provider.Slug()) + "/"
	var out []Entry
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: dir, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		out = append(out, Entry{
			Key:          obj.Key,
			RunID:        strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

// Load reads one snapshot back.
func (a *Archive) Load(ctx context.Context, tenantID string, provider pos.Provider, runID string) (*Snapshot, error) {
	key := Key(tenantID, provider, runID)
	reader, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", key, err)
	}
	return &snap, nil
}
