//go:build integration

package storage

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat-io/docchat/internal/domain"
	"github.com/docchat-io/docchat/internal/testutil"
)

func newTestS3Client(ctx context.Context, t *testing.T, mc *testutil.MinIOContainer) *S3Client {
	t.Helper()
	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        mc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     mc.AccessKey,
		SecretAccessKey: mc.SecretKey,
		Bucket:          "docchat-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))
	return client
}

func TestS3Client_EnsureBucketIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mc := testutil.NewMinIOContainer(ctx, t)
	defer mc.Terminate(ctx)

	client := newTestS3Client(ctx, t, mc)
	assert.NoError(t, client.EnsureBucket(ctx))
}

func TestS3Client_ArchiveStoresDocument(t *testing.T) {
	ctx := context.Background()
	mc := testutil.NewMinIOContainer(ctx, t)
	defer mc.Terminate(ctx)

	client := newTestS3Client(ctx, t, mc)

	doc := domain.NewDocument("report.pdf", []byte("%PDF-1.4 test content"))
	require.NoError(t, client.Archive(ctx, "session-1", doc))

	list, err := client.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String("docchat-test"),
		Prefix: aws.String("sessions/session-1/"),
	})
	require.NoError(t, err)
	require.Len(t, list.Contents, 1)

	obj, err := client.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String("docchat-test"),
		Key:    list.Contents[0].Key,
	})
	require.NoError(t, err)
	defer obj.Body.Close()

	content, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test content", string(content))
	assert.Equal(t, "application/pdf", aws.ToString(obj.ContentType))
}

func TestS3Client_ArchiveIsContentAddressed(t *testing.T) {
	ctx := context.Background()
	mc := testutil.NewMinIOContainer(ctx, t)
	defer mc.Terminate(ctx)

	client := newTestS3Client(ctx, t, mc)

	doc := domain.NewDocument("report.pdf", []byte("same bytes"))
	require.NoError(t, client.Archive(ctx, "session-1", doc))
	require.NoError(t, client.Archive(ctx, "session-1", doc))

	list, err := client.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String("docchat-test"),
		Prefix: aws.String("sessions/session-1/"),
	})
	require.NoError(t, err)
	// Re-archiving identical content overwrites the same key.
	assert.Len(t, list.Contents, 1)
}
