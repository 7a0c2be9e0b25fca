package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage/mocks"
	"catalog-sync/feature/pos"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSnapshot() Snapshot {
	return Snapshot{
		RunID:     "run-1",
		TenantID:  "tenant-1",
		FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Catalog: reconcile.Catalog{
			Provider: "SQUARE",
			Categories: []reconcile.Category{{
				ProviderCategoryID: "C1",
				Name:               "Drinks",
				Items:              []reconcile.Item{{ProviderItemID: "I1", Name: "Latte", Price: 450, Available: true}},
			}},
		},
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "snapshots/tenant-1/toast/run-9.json", Key("tenant-1", pos.ProviderToast, "run-9"))
}

func TestSave_CreatesBucketOnce(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "catalog-snapshots")
	ctx := context.Background()

	client.On("BucketExists", ctx, "catalog-snapshots").Return(false, nil).Once()
	client.On("MakeBucket", ctx, "catalog-snapshots", mock.Anything).Return(nil).Once()
	client.On("PutObject", ctx, "catalog-snapshots", "snapshots/tenant-1/square/run-1.json",
		mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Return(minio.UploadInfo{}, nil).Twice()

	key, err := a.Save(ctx, pos.ProviderSquare, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "snapshots/tenant-1/square/run-1.json", key)

	_, err = a.Save(ctx, pos.ProviderSquare, testSnapshot())
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestSave_RetriesBucketCheckAfterFailure(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "b")
	ctx := context.Background()

	client.On("BucketExists", ctx, "b").Return(false, errors.New("minio down")).Once()
	client.On("BucketExists", ctx, "b").Return(true, nil).Once()
	client.On("PutObject", ctx, "b", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	_, err := a.Save(ctx, pos.ProviderSquare, testSnapshot())
	assert.ErrorContains(t, err, "minio down")

	_, err = a.Save(ctx, pos.ProviderSquare, testSnapshot())
	require.NoError(t, err)

	// Ready after the first success; no further checks.
	_, err = a.Save(ctx, pos.ProviderSquare, testSnapshot())
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "BucketExists", 2)
	client.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestSave_PutFailure(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "b")
	ctx := context.Background()

	client.On("BucketExists", ctx, "b").Return(true, nil)
	client.On("PutObject", ctx, "b", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	_, err := a.Save(ctx, pos.ProviderSquare, testSnapshot())
	assert.ErrorContains(t, err, "access denied")
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestList(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "b")
	ctx := context.Background()

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "snapshots/tenant-1/square/run-1.json", Size: 10, LastModified: time.Unix(100, 0)}
	ch <- minio.ObjectInfo{Key: "snapshots/tenant-1/square/run-2.json", Size: 20, LastModified: time.Unix(200, 0)}
	ch <- minio.ObjectInfo{Key: "snapshots/tenant-1/square/notes.txt"}
	close(ch)

	client.On("ListObjects", ctx, "b", minio.ListObjectsOptions{Prefix: "snapshots/tenant-1/square/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	entries, err := a.List(ctx, "tenant-1", pos.ProviderSquare)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run-2", entries[0].RunID)
	assert.Equal(t, "run-1", entries[1].RunID)
}

func TestLoad(t *testing.T) {
	client := new(mocks.Client)
	a := New(client, "b")
	ctx := context.Background()

	data, err := json.Marshal(testSnapshot())
	require.NoError(t, err)
	client.On("GetObject", ctx, "b", "snapshots/tenant-1/square/run-1.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(data)), nil)

	snap, err := a.Load(ctx, "tenant-1", pos.ProviderSquare, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Latte", snap.Catalog.Categories[0].Items[0].Name)
	assert.True(t, snap.FetchedAt.Equal(testSnapshot().FetchedAt))
}
