// Package s3 provides a snapshot store backed by Amazon S3 or S3-compatible
// storage.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/dagfs/pkg/snapshot"
)

// snapshotExt is appended to snapshot names to form object keys.
const snapshotExt = ".json"

// S3SnapshotStore implements snapshot.Store using Amazon S3 or S3-compatible
// storage (MinIO, Localstack, Cubbit DS3, etc.).
//
// Key Design:
//   - Each snapshot is one object: "<prefix><name>.json"
//   - The bucket contents stay human-readable and inspectable
//   - S3 PUTs are atomic per object, so a snapshot is never half-visible
//
// Thread Safety:
// This implementation is safe for concurrent use by multiple goroutines.
// Concurrent saves to the same name are last-writer-wins under S3's
// consistency model.
type S3SnapshotStore struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// S3SnapshotStoreConfig contains configuration for the S3 snapshot store.
type S3SnapshotStoreConfig struct {
	// Client is the configured S3 client
	Client *s3.Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "dagfs/snapshots/" results in keys like "dagfs/snapshots/nightly.json"
	KeyPrefix string
}

// NewS3SnapshotStore creates a new S3-based snapshot store.
//
// This verifies bucket access with a HEAD request. The bucket must already
// exist - this function does not create it.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3SnapshotStore: Initialized store
//   - error: Returns error if bucket access fails or context is cancelled
func NewS3SnapshotStore(ctx context.Context, cfg S3SnapshotStoreConfig) (*S3SnapshotStore, error) {
	// ========================================================================
	// Step 1: Check context and validate configuration
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	// ========================================================================
	// Step 2: Verify bucket access
	// ========================================================================

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3SnapshotStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a given snapshot name.
func (s *S3SnapshotStore) objectKey(name string) string {
	return s.keyPrefix + name + snapshotExt
}

// Save uploads a snapshot document under the given name.
//
// S3 object writes are atomic: until the PUT completes, readers see the
// previous version of the object.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name (must satisfy snapshot.ValidateName)
//   - data: Serialized filesystem document
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or S3/context errors
func (s *S3SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", name, err)
	}

	return nil
}

// Load downloads the snapshot document stored under the given name.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to load
//
// Returns:
//   - []byte: The stored document
//   - error: snapshot.ErrSnapshotNotFound if no such object exists,
//     snapshot.ErrInvalidName for bad names, or S3/context errors
func (s *S3SnapshotStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		// Check if object doesn't exist
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("snapshot %s: %w", name, snapshot.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to get snapshot %s from S3: %w", name, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot %s: %w", name, err)
	}

	return data, nil
}

// List returns metadata for every snapshot object under the key prefix,
// sorted by name.
//
// Objects without the snapshot extension are ignored.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//
// Returns:
//   - []snapshot.Info: One entry per snapshot object, sorted by name
//   - error: S3 or context errors
func (s *S3SnapshotStore) List(ctx context.Context) ([]snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []snapshot.Info

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}

			key := strings.TrimPrefix(*obj.Key, s.keyPrefix)
			if !strings.HasSuffix(key, snapshotExt) {
				continue
			}

			info := snapshot.Info{
				Name: strings.TrimSuffix(key, snapshotExt),
			}
			if obj.Size != nil {
				info.Size = uint64(*obj.Size)
			}
			if obj.LastModified != nil {
				info.ModTime = obj.LastModified.UTC()
			}

			infos = append(infos, info)
		}
	}

	// S3 lists keys in lexicographic order, but trimming the extension can
	// change the relative order of names that contain dots.
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	return infos, nil
}

// Delete removes the snapshot object for the given name.
//
// S3 DeleteObject succeeds for missing keys, so the operation is naturally
// idempotent.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - name: Snapshot name to delete
//
// Returns:
//   - error: snapshot.ErrInvalidName for bad names, or S3/context errors
func (s *S3SnapshotStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", name, err)
	}

	return nil
}

// Close releases resources held by the store. The S3 client is owned by the
// caller, so Close always succeeds.
func (s *S3SnapshotStore) Close() error {
	return nil
}
