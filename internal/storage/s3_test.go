package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "plategate/pkg/errors"
)

type fakeS3 struct {
	inputs [][]byte
	last   *s3.PutObjectInput
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, body)
	f.last = params
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

func TestS3Store_Put(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, S3Options{Bucket: "anpr", Prefix: "site-a"})

	loc, err := store.Put(context.Background(), AreaImages, "plate.jpg", []byte{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, "s3://anpr/site-a/images/lpr_images/plate.jpg", loc)
	assert.Equal(t, "site-a/images/lpr_images/plate.jpg", aws.ToString(client.last.Key))
	assert.Equal(t, int64(3), aws.ToInt64(client.last.ContentLength))
	assert.Nil(t, client.last.ContentEncoding)
	assert.Equal(t, []byte{1, 2, 3}, client.inputs[0])
}

func TestS3Store_PutGzip(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, S3Options{Bucket: "anpr", Gzip: true})

	payload := bytes.Repeat([]byte("<EventNotificationAlert/>"), 20)
	_, err := store.Put(context.Background(), AreaEventLogs, "1.xml", payload)
	require.NoError(t, err)

	assert.Equal(t, "gzip", aws.ToString(client.last.ContentEncoding))
	r, err := gzip.NewReader(bytes.NewReader(client.inputs[0]))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestS3Store_PutError(t *testing.T) {
	store := NewS3StoreWithClient(&fakeS3{err: errors.New("access denied")}, S3Options{Bucket: "anpr"})

	_, err := store.Put(context.Background(), AreaImages, "p.jpg", []byte{1})
	assert.True(t, pkgerrors.IsStorage(err))
	assert.Error(t, store.Check(context.Background()))
}

func TestS3Store_Sanitize(t *testing.T) {
	store := NewS3StoreWithClient(&fakeS3{}, S3Options{Bucket: "anpr", Sanitize: true})

	_, err := store.Put(context.Background(), AreaImages, "../x.jpg", []byte{1})
	assert.True(t, pkgerrors.IsStorage(err))
}
