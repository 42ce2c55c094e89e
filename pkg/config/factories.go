package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/snapshot"
	snapshotBadger "github.com/marmos91/dagfs/pkg/snapshot/badger"
	snapshotFs "github.com/marmos91/dagfs/pkg/snapshot/fs"
	snapshotS3 "github.com/marmos91/dagfs/pkg/snapshot/s3"
)

// CreateSnapshotStore creates a snapshot store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration from
// the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "filesystem": Uses pkg/snapshot/fs (one file per snapshot)
//   - "badger": Uses pkg/snapshot/badger (embedded BadgerDB)
//   - "s3": Uses pkg/snapshot/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Snapshot store configuration
//
// Returns:
//   - snapshot.Store: Initialized snapshot store
//   - error: Configuration or initialization error
func CreateSnapshotStore(ctx context.Context, cfg *SnapshotStoreConfig) (snapshot.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemSnapshotStore(ctx, cfg.Filesystem)
	case "badger":
		return createBadgerSnapshotStore(ctx, cfg.Badger)
	case "s3":
		return createS3SnapshotStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %q (supported: filesystem, badger, s3)", cfg.Type)
	}
}

// createFilesystemSnapshotStore creates a directory-backed snapshot store.
func createFilesystemSnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	// Define the configuration struct for the filesystem snapshot store
	type FilesystemSnapshotStoreOptions struct {
		Path string `mapstructure:"path"`
	}

	// Decode the options into the config struct
	var storeCfg FilesystemSnapshotStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem snapshot store config: %w", err)
	}

	// Validate required fields
	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem snapshot store: path is required")
	}

	// Create the store
	store, err := snapshotFs.NewFSSnapshotStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem snapshot store: %w", err)
	}

	logger.Info("filesystem snapshot store initialized: path=%s", storeCfg.Path)

	return store, nil
}

// createBadgerSnapshotStore creates a BadgerDB-backed snapshot store.
func createBadgerSnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	// Define the configuration struct for the badger snapshot store
	type BadgerSnapshotStoreOptions struct {
		DBPath   string `mapstructure:"db_path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	// Decode the options into the config struct
	var storeCfg BadgerSnapshotStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger snapshot store config: %w", err)
	}

	// Validate required fields
	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger snapshot store: db_path is required unless in_memory is set")
	}

	// Create the store
	store, err := snapshotBadger.NewBadgerSnapshotStore(ctx, snapshotBadger.BadgerSnapshotStoreConfig{
		DBPath:   storeCfg.DBPath,
		InMemory: storeCfg.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger snapshot store: %w", err)
	}

	logger.Info("badger snapshot store initialized: db_path=%s in_memory=%t", storeCfg.DBPath, storeCfg.InMemory)

	return store, nil
}

// createS3SnapshotStore creates an S3-based snapshot store.
func createS3SnapshotStore(ctx context.Context, options map[string]any) (snapshot.Store, error) {
	// Define the configuration struct for the S3 snapshot store
	type S3SnapshotStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var storeCfg S3SnapshotStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 snapshot store config: %w", err)
	}

	// Validate required fields
	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 snapshot store: bucket is required")
	}

	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 snapshot store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Snapshot Store
	// ========================================================================

	store, err := snapshotS3.NewS3SnapshotStore(ctx, snapshotS3.S3SnapshotStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 snapshot store: %w", err)
	}

	logger.Info("S3 snapshot store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
