package blobservice

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreSaveOpenDelete(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	ref, err := s.Save(ctx, strings.NewReader("fake png bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	f, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "fake png bytes", string(data))

	err = s.Delete(ctx, ref)
	assert.NoError(t, err)

	_, err = s.Open(ctx, ref)
	assert.Error(t, err)
}

func TestFSStoreRejectsUnsupportedType(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), strings.NewReader("<svg/>"), "image/svg+xml")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFSStoreDeleteMissingRef(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	err = s.Delete(context.Background(), "no-such-ref.png")
	assert.NoError(t, err)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ref, err := s.Save(ctx, strings.NewReader("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, s.Contains(ref))

	f, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	assert.False(t, s.Contains(ref))
	require.NoError(t, s.Delete(ctx, ref))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeFor("abc.png"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("abc.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("abc.gif"))
}
