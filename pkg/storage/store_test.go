package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8001/uploads/", 0)
	require.NoError(t, err)
	ctx := context.Background()

	stored, err := store.Put(ctx, &Object{
		Key:         "proofs/BK-000001/pay_a.png",
		Body:        strings.NewReader("png-bytes"),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8001/uploads/proofs/BK-000001/pay_a.png", stored.URL)
	assert.Equal(t, int64(9), stored.Size)

	data, err := os.ReadFile(filepath.Join(dir, "proofs", "BK-000001", "pay_a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	exists, err := store.Exists(ctx, stored.Key)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Remove(ctx, stored.Key))
	exists, err = store.Exists(ctx, stored.Key)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, store.Remove(ctx, stored.Key))
}

func TestLocalStoreRejectsBadKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost", 0)
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.txt", "/etc/passwd", "proofs/../../x"} {
		_, err := store.Put(context.Background(), &Object{Key: key, Body: strings.NewReader("x")})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStoreEnforcesMaxSize(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost", 4)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), &Object{Key: "proofs/big.pdf", Body: strings.NewReader("12345")})
	assert.ErrorIs(t, err, ErrTooLarge)

	exists, err := store.Exists(context.Background(), "proofs/big.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProofKey(t *testing.T) {
	key := ProofKey("BK-000007", "pay_abc", "Receipt.PNG")
	assert.True(t, strings.HasPrefix(key, "proofs/BK-000007/pay_abc-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.True(t, validKey(key))
	assert.NotEqual(t, key, ProofKey("BK-000007", "pay_abc", "Receipt.PNG"))
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
