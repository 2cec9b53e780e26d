package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "aws"

	proofPrefix = "proofs"
)

var (
	ErrUnknownProvider = errors.New("unknown storage provider")
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrTooLarge        = errors.New("object exceeds size limit")
)

// ProofStore keeps bank transfer receipts uploaded by customers.
type ProofStore interface {
	Put(ctx context.Context, obj *Object) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type Object struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
	Tags        map[string]string
}

type StoredObject struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}

type Config struct {
	Provider  string
	LocalPath string
	LocalURL  string
	MaxSize   int64
	S3        S3Config
}

// New builds the store selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (ProofStore, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStore(cfg.LocalPath, cfg.LocalURL, cfg.MaxSize)
	case ProviderS3:
		return NewS3Store(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
}

// ProofKey names a receipt object: proofs/<booking>/<payment>-<random><ext>.
func ProofKey(bookingID, paymentID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(proofPrefix, bookingID, fmt.Sprintf("%s-%s%s", paymentID, uuid.NewString()[:8], ext))
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	clean := path.Clean(key)
	return clean == key && clean != ".." && !strings.HasPrefix(clean, "../")
}
