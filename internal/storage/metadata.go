// File path: internal/storage/metadata.go
package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrObjectNotFound reports that the artifact does not exist in the tier.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectMeta is the freshness metadata the correlator reads per artifact.
type ObjectMeta struct {
	Updated    time.Time
	Size       int64
	Checksum   string
	Generation string
}

// MetadataStore exposes object metadata lookups against named buckets. The
// interface is intentionally tiny to support an in-memory fake in tests and
// an S3-backed implementation in production.
type MetadataStore interface {
	Stat(ctx context.Context, bucket, key string) (ObjectMeta, error)
}

// InMemoryMetadataStore is a test-friendly store keyed by bucket/key. It is
// safe for concurrent use.
type InMemoryMetadataStore struct {
	mu      sync.RWMutex
	objects map[string]ObjectMeta
	errs    map[string]error
}

// NewInMemoryMetadataStore constructs an empty in-memory store.
func NewInMemoryMetadataStore() *InMemoryMetadataStore {
	return &InMemoryMetadataStore{
		objects: make(map[string]ObjectMeta),
		errs:    make(map[string]error),
	}
}

// Put registers an object's metadata.
func (s *InMemoryMetadataStore) Put(bucket, key string, meta ObjectMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = meta
}

// Fail makes lookups for the given object return err.
func (s *InMemoryMetadataStore) Fail(bucket, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[bucket+"/"+key] = err
}

// Stat returns the registered metadata or ErrObjectNotFound.
func (s *InMemoryMetadataStore) Stat(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.errs[bucket+"/"+key]; ok {
		return ObjectMeta{}, err
	}
	meta, ok := s.objects[bucket+"/"+key]
	if !ok {
		return ObjectMeta{}, ErrObjectNotFound
	}
	return meta, nil
}

// S3HeadClient captures the subset of the AWS SDK client used by
// S3MetadataStore.
type S3HeadClient interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3MetadataStore reads artifact metadata from S3-compatible buckets.
type S3MetadataStore struct {
	client S3HeadClient
}

// NewS3MetadataStore wraps an S3 client.
func NewS3MetadataStore(client S3HeadClient) *S3MetadataStore {
	return &S3MetadataStore{client: client}
}

// Stat issues a HeadObject call. Missing objects map to ErrObjectNotFound;
// every other failure passes through for the correlator to record.
func (s *S3MetadataStore) Stat(ctx context.Context, bucket, key string) (ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return ObjectMeta{}, ErrObjectNotFound
		}
		return ObjectMeta{}, err
	}
	meta := ObjectMeta{}
	if out.LastModified != nil {
		meta.Updated = out.LastModified.UTC()
	}
	if out.ContentLength != nil {
		meta.Size = *out.ContentLength
	}
	if out.ETag != nil {
		meta.Checksum = strings.Trim(*out.ETag, `"`)
	}
	if out.VersionId != nil {
		meta.Generation = *out.VersionId
	}
	return meta, nil
}
