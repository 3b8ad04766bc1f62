package media

import (
	"context"
	"regexp"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPublicURL(t *testing.T) {
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com",
		defaultPublicURL(S3Options{Bucket: "media", Region: "eu-west-1"}))
	assert.Equal(t, "http://localhost:9000/media",
		defaultPublicURL(S3Options{Bucket: "media", Endpoint: "http://localhost:9000/"}))
}

func TestObjectKey(t *testing.T) {
	u := &S3Uploader{keyPrefix: "users"}

	key, err := u.objectKey("/tmp/upload-123.PNG", mimetype.Lookup("image/png"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^users/[a-zA-Z0-9]{16}\.png$`), key)

	other, err := u.objectKey("/tmp/upload-123.PNG", mimetype.Lookup("image/png"))
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	bare := &S3Uploader{}
	key, err = bare.objectKey("/tmp/upload-9.jpg", mimetype.Lookup("application/octet-stream"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-zA-Z0-9]{16}\.jpg$`), key)
}

func TestUpload_NoFile(t *testing.T) {
	u := &S3Uploader{}
	_, err := u.Upload(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoFile)
}
