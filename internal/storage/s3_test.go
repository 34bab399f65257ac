package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte
	putErr   error
}

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket:      *input.Bucket,
		key:         *input.Key,
		contentType: *input.ContentType,
		body:        body,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey: key not found")
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func TestS3UploaderPutAndGet(t *testing.T) {
	mock := newMockS3()
	uploader, err := NewS3Uploader(mock, "flow-contracts", nil)
	require.NoError(t, err)

	signature := []byte("data:image/png;base64,iVBOR...")
	key, err := uploader.Put(context.Background(), "contracts/c1/signatures/client-1.png", "image/png", signature)
	require.NoError(t, err)
	assert.Equal(t, "contracts/c1/signatures/client-1.png", key)

	require.Len(t, mock.putCalls, 1)
	assert.Equal(t, "flow-contracts", mock.putCalls[0].bucket)
	assert.Equal(t, "image/png", mock.putCalls[0].contentType)
	assert.Equal(t, signature, mock.putCalls[0].body)

	got, err := uploader.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, signature, got)
}

func TestS3UploaderPutDefaultsContentType(t *testing.T) {
	mock := newMockS3()
	uploader, err := NewS3Uploader(mock, "flow-contracts", nil)
	require.NoError(t, err)

	_, err = uploader.Put(context.Background(), "contracts/c1/contract.pdf", "", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mock.putCalls[0].contentType)
}

func TestS3UploaderValidation(t *testing.T) {
	mock := newMockS3()

	_, err := NewS3Uploader(nil, "bucket", nil)
	assert.Error(t, err)

	_, err = NewS3Uploader(mock, " ", nil)
	assert.Error(t, err)

	uploader, err := NewS3Uploader(mock, "bucket", nil)
	require.NoError(t, err)

	_, err = uploader.Put(context.Background(), "", "image/png", nil)
	assert.Error(t, err)

	_, err = uploader.Get(context.Background(), "")
	assert.Error(t, err)

	_, err = uploader.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestS3UploaderPutError(t *testing.T) {
	mock := newMockS3()
	mock.putErr = errors.New("AccessDenied")
	uploader, err := NewS3Uploader(mock, "bucket", nil)
	require.NoError(t, err)

	_, err = uploader.Put(context.Background(), "k", "image/png", []byte("x"))
	assert.ErrorContains(t, err, "AccessDenied")
}
