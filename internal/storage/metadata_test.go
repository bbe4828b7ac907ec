// File path: internal/storage/metadata_test.go
package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeHeadClient struct {
	out *s3.HeadObjectOutput
	err error
}

func (f *fakeHeadClient) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestInMemoryStat(t *testing.T) {
	store := NewInMemoryMetadataStore()
	ctx := context.Background()

	if _, err := store.Stat(ctx, "b", "k"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	want := ObjectMeta{Updated: time.Now().UTC(), Size: 42, Checksum: "abc"}
	store.Put("b", "k", want)
	got, err := store.Stat(ctx, "b", "k")
	if err != nil || got != want {
		t.Fatalf("stat = %+v, %v", got, err)
	}
}

func TestS3StatMapsFields(t *testing.T) {
	updated := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	size := int64(2048)
	etag := `"abc123"`
	version := "gen-7"
	store := NewS3MetadataStore(&fakeHeadClient{out: &s3.HeadObjectOutput{
		LastModified:  &updated,
		ContentLength: &size,
		ETag:          &etag,
		VersionId:     &version,
	}})

	got, err := store.Stat(context.Background(), "bucket", "key")
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if !got.Updated.Equal(updated) || got.Size != size {
		t.Fatalf("unexpected meta %+v", got)
	}
	if got.Checksum != "abc123" {
		t.Fatalf("etag quotes must be trimmed, got %q", got.Checksum)
	}
	if got.Generation != "gen-7" {
		t.Fatalf("unexpected generation %q", got.Generation)
	}
}

func TestS3StatNotFound(t *testing.T) {
	store := NewS3MetadataStore(&fakeHeadClient{err: &types.NotFound{}})
	if _, err := store.Stat(context.Background(), "b", "k"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}
