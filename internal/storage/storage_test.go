package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveOpenDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(src, []byte("frames"), 0o644))

	require.NoError(t, store.Save(BucketOutputVideos, "u1/job1/output.mp4", src))

	blob, size, err := store.Open(BucketOutputVideos, "u1/job1/output.mp4")
	require.NoError(t, err)
	defer blob.Close()

	data, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
	assert.Equal(t, int64(6), size)

	require.NoError(t, store.Delete(BucketOutputVideos, "u1/job1/output.mp4"))
	_, _, err = store.Open(BucketOutputVideos, "u1/job1/output.mp4")
	assert.Error(t, err)

	// Deleting again is not an error
	assert.NoError(t, store.Delete(BucketOutputVideos, "u1/job1/output.mp4"))
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	err = store.Save(BucketInputVideos, "../../etc/passwd", "whatever")
	assert.Error(t, err)
}

func TestURLSigner_RoundTrip(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Minute)

	token, err := signer.Sign(BucketOutputVideos, "u1/job1/output.mp4")
	require.NoError(t, err)

	bucket, key, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, BucketOutputVideos, bucket)
	assert.Equal(t, "u1/job1/output.mp4", key)
}

func TestURLSigner_RejectsTamperAndExpiry(t *testing.T) {
	signer := NewURLSigner("test-secret", time.Minute)

	token, err := signer.Sign(BucketOutputVideos, "k")
	require.NoError(t, err)

	_, _, err = signer.Verify(token + "x")
	assert.Error(t, err, "tampered token must fail")

	other := NewURLSigner("different-secret", time.Minute)
	_, _, err = other.Verify(token)
	assert.Error(t, err, "token signed with another secret must fail")

	expired := NewURLSigner("test-secret", -time.Hour)
	token, err = expired.Sign(BucketOutputVideos, "k")
	require.NoError(t, err)
	_, _, err = signer.Verify(token)
	assert.Error(t, err, "expired token must fail")
}
