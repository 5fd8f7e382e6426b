package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	objects map[string][]byte
	putErr  error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte)}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSnapshotKey(t *testing.T) {
	archive := NewSnapshotArchive(newFakeBucket(), "bucket", "/mairie/exports/", quietLogger())
	ts := time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "mairie/exports/20240313T100000.000Z.json", archive.SnapshotKey(ts))

	bare := NewSnapshotArchive(newFakeBucket(), "bucket", "", quietLogger())
	assert.Equal(t, "20240313T100000.000Z.json", bare.SnapshotKey(ts))
}

func TestPushPullLatest(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	archive := NewSnapshotArchive(bucket, "bucket", "snapshots", quietLogger())

	_, err := archive.Latest(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	first := time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	_, err = archive.Push(ctx, []byte(`[{"id":"a"}]`), first)
	require.NoError(t, err)

	secondKey, err := archive.Push(ctx, []byte(`[{"id":"b"}]`), first.Add(time.Minute))
	require.NoError(t, err)

	// unrelated objects are ignored
	bucket.objects["other/20990101T000000.000Z.json"] = []byte("[]")
	bucket.objects["snapshots/readme.txt"] = []byte("hi")

	keys, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	latest, err := archive.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, secondKey, latest)

	data, err := archive.Pull(ctx, latest)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(data))
}

func TestPushFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.putErr = errors.New("access denied")
	archive := NewSnapshotArchive(bucket, "bucket", "snapshots", quietLogger())

	_, err := archive.Push(context.Background(), []byte("[]"), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, bucket.putErr)
}

func TestPullMissing(t *testing.T) {
	archive := NewSnapshotArchive(newFakeBucket(), "bucket", "snapshots", quietLogger())

	_, err := archive.Pull(context.Background(), "snapshots/nope.json")
	var noSuchKey *s3types.NoSuchKey
	assert.ErrorAs(t, err, &noSuchKey)
}
