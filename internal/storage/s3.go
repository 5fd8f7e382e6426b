// Package storage pushes dossier export files to an S3 bucket and pulls them
// back so another instance can import them.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

const (
	snapshotContentType = "application/json"
	snapshotTimeLayout  = "20060102T150405.000Z"
)

var ErrNoSnapshot = errors.New("no snapshot found")

// ObjectAPI is the subset of *s3.Client the archive needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

type SnapshotArchive struct {
	client ObjectAPI
	bucket string
	prefix string
	logger logrus.FieldLogger
}

func NewSnapshotArchive(client ObjectAPI, bucket, prefix string, logger logrus.FieldLogger) *SnapshotArchive {
	return &SnapshotArchive{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.WithField("bucket", bucket),
	}
}

// SnapshotKey is where a snapshot taken at ts is stored. Keys sort in time
// order.
func (a *SnapshotArchive) SnapshotKey(ts time.Time) string {
	name := ts.UTC().Format(snapshotTimeLayout) + ".json"
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Push uploads data under the key for ts and returns that key.
func (a *SnapshotArchive) Push(ctx context.Context, data []byte, ts time.Time) (string, error) {
	key := a.SnapshotKey(ts)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(snapshotContentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	a.logger.WithField("key", key).WithField("bytes", len(data)).Info("snapshot uploaded")
	return key, nil
}

// Pull downloads the snapshot stored under key.
func (a *SnapshotArchive) Pull(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}

	return data, nil
}

// List returns every snapshot key under the prefix, oldest first.
func (a *SnapshotArchive) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
	}
	if a.prefix != "" {
		input.Prefix = aws.String(a.prefix + "/")
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(a.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".json") {
				keys = append(keys, key)
			}
		}
	}

	return keys, nil
}

// Latest returns the key of the most recent snapshot.
func (a *SnapshotArchive) Latest(ctx context.Context) (string, error) {
	keys, err := a.List(ctx)
	if err != nil {
		return "", err
	}

	latest := ""
	for _, key := range keys {
		if key > latest {
			latest = key
		}
	}

	if latest == "" {
		return "", ErrNoSnapshot
	}

	return latest, nil
}
