package reports

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &manager.UploadOutput{Key: input.Key}, nil
}

func TestS3Archiver(t *testing.T) {
	up := &fakeUploader{}
	a := NewS3ArchiverWithUploader(up, "reports-bucket", "tradecal", zerolog.Nop())
	r := sampleReport()

	require.NoError(t, a.Notify(context.Background(), r))
	assert.Equal(t, "archive", a.Name())
	assert.Equal(t, "reports-bucket", aws.ToString(up.input.Bucket))
	assert.Equal(t, "tradecal/session/29-Apr-2024/"+r.ID+".msgpack", aws.ToString(up.input.Key))
	assert.Equal(t, archiveContentType, aws.ToString(up.input.ContentType))

	decoded, err := DecodeReport(up.body)
	require.NoError(t, err)
	assert.Equal(t, r.ID, decoded.ID)
	assert.Equal(t, r.Kind, decoded.Kind)
	assert.Equal(t, r.Title, decoded.Title)
	assert.True(t, r.GeneratedAt.Equal(decoded.GeneratedAt))
	assert.Equal(t, r.Sections[0], decoded.Sections[0])
}

func TestS3Archiver_UploadError(t *testing.T) {
	a := NewS3ArchiverWithUploader(&fakeUploader{err: errors.New("access denied")}, "b", "", zerolog.Nop())

	err := a.Notify(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestDecodeReport_Garbage(t *testing.T) {
	_, err := DecodeReport([]byte{0xc1})
	assert.Error(t, err)
}
