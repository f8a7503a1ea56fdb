package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeS3 struct {
	inputs [][]byte
	keys   []string
	last   *s3.PutObjectInput
	err    error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	f.inputs = append(f.inputs, body)
	f.last = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	client := &fakeS3{}
	store := NewS3StoreWithClient(client, "finance-stock", zaptest.NewLogger(t))

	err := store.Put(context.Background(), Object{
		Key:         "2024-01-02/stock_data.parquet",
		Body:        []byte("PAR1"),
		ContentType: "application/vnd.apache.parquet",
		Metadata:    map[string]string{"format": "parquet"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-02/stock_data.parquet"}, client.keys)
	assert.Equal(t, []byte("PAR1"), client.inputs[0])
	assert.Equal(t, "finance-stock", aws.ToString(client.last.Bucket))
	assert.Equal(t, "application/vnd.apache.parquet", aws.ToString(client.last.ContentType))
	assert.Equal(t, "parquet", client.last.Metadata["format"])
	assert.Equal(t, "s3://finance-stock", store.Location())
}

func TestS3StorePutError(t *testing.T) {
	boom := errors.New("access denied")
	store := NewS3StoreWithClient(&fakeS3{err: boom}, "finance-stock", zaptest.NewLogger(t))

	err := store.Put(context.Background(), Object{Key: "k", Body: []byte("x")})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "s3://finance-stock/k")
}

func TestNewS3StoreRequiresCredentials(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Bucket: "b"}, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewS3Store(context.Background(), S3Config{AccessKeyID: "a", SecretAccessKey: "s"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestFSStorePut(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewFSStore(fs, "/out", zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), Object{Key: "2024-01-02/stock_data.parquet", Body: []byte("one")}))
	require.NoError(t, store.Put(context.Background(), Object{Key: "2024-01-02/stock_data.parquet", Body: []byte("two")}))

	got, err := afero.ReadFile(fs, "/out/2024-01-02/stock_data.parquet")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
	assert.Equal(t, "/out", store.Location())
}

func TestFSStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFSStore(afero.NewMemMapFs(), "/out", zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Error(t, store.Put(context.Background(), Object{Key: ""}))
	assert.Error(t, store.Put(context.Background(), Object{Key: "dir/"}))

	// traversal stays under the base directory
	require.NoError(t, store.Put(context.Background(), Object{Key: "../escape.parquet", Body: []byte("x")}))
	ok, err := afero.Exists(store.fs, "/out/escape.parquet")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFSStoreHonoursCancelledContext(t *testing.T) {
	store, err := NewFSStore(afero.NewMemMapFs(), "/out", zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, Object{Key: "a/b"}), context.Canceled)
}

func TestParseSink(t *testing.T) {
	s, err := ParseSink("")
	require.NoError(t, err)
	assert.Equal(t, SinkS3, s)

	s, err = ParseSink("LOCAL")
	require.NoError(t, err)
	assert.Equal(t, SinkLocal, s)

	_, err = ParseSink("gcs")
	assert.Error(t, err)
}
