package services

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// objectBackend is the slice of the MinIO client the store actually uses.
// Tests substitute a scripted implementation.
type objectBackend interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error
	StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

type minioBackend struct {
	client *minio.Client
}

func (b *minioBackend) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return b.client.BucketExists(ctx, bucket)
}

func (b *minioBackend) MakeBucket(ctx context.Context, bucket string) error {
	return b.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

func (b *minioBackend) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *minioBackend) StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error) {
	return b.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
}

func (b *minioBackend) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return b.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}

// ObjectStore wraps the MinIO client behind the put/get contract the
// workflow needs: bytes in, opaque file reference out. Every operation is
// retried once before failing with a storage error, since object-store
// hiccups are usually transient.
type ObjectStore struct {
	backend objectBackend
	bucket  string

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewObjectStore(client *minio.Client, bucket string) *ObjectStore {
	s := &ObjectStore{bucket: bucket}
	if client != nil {
		s.backend = &minioBackend{client: client}
	}
	return s
}

func newObjectStoreWithBackend(backend objectBackend, bucket string) *ObjectStore {
	return &ObjectStore{backend: backend, bucket: bucket}
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.bucketEnsured {
		return nil
	}

	exists, err := s.backend.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.backend.MakeBucket(ctx, s.bucket); err != nil {
			return err
		}
		log.Printf("Created bucket %s", s.bucket)
	}

	s.bucketEnsured = true
	return nil
}

func isMissingObject(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// Put stores the document bytes and returns the opaque file reference used
// everywhere else in the system. References are never reused.
func (s *ObjectStore) Put(ctx context.Context, reader io.Reader, size int64, contentType string) (string, error) {
	if s == nil || s.backend == nil {
		return "", StorageError("object storage is not configured", nil)
	}

	fileRef := uuid.New().String()

	put := func() error {
		if err := s.ensureBucket(ctx); err != nil {
			return err
		}
		return s.backend.PutObject(ctx, s.bucket, fileRef, reader, size, contentType)
	}

	if err := put(); err != nil {
		// Single retry only helps when the reader is seekable; multipart
		// uploads from gin hand us an *os.File or bytes reader, both seekable.
		if seeker, ok := reader.(io.Seeker); ok {
			if _, serr := seeker.Seek(0, io.SeekStart); serr == nil {
				if err = put(); err == nil {
					return fileRef, nil
				}
			}
		}
		return "", StorageError("failed to store document", err)
	}

	return fileRef, nil
}

// Get streams the document for the given file reference.
func (s *ObjectStore) Get(ctx context.Context, fileRef string) (io.ReadCloser, int64, string, error) {
	if s == nil || s.backend == nil {
		return nil, 0, "", StorageError("object storage is not configured", nil)
	}

	stat := func() (minio.ObjectInfo, error) {
		if err := s.ensureBucket(ctx); err != nil {
			return minio.ObjectInfo{}, err
		}
		return s.backend.StatObject(ctx, s.bucket, fileRef)
	}

	info, err := stat()
	if err != nil {
		if isMissingObject(err) {
			return nil, 0, "", NotFoundError("file %s not found", fileRef)
		}
		info, err = stat()
		if err != nil {
			if isMissingObject(err) {
				return nil, 0, "", NotFoundError("file %s not found", fileRef)
			}
			return nil, 0, "", StorageError("failed to stat document", err)
		}
	}

	obj, err := s.backend.GetObject(ctx, s.bucket, fileRef)
	if err != nil {
		obj, err = s.backend.GetObject(ctx, s.bucket, fileRef)
		if err != nil {
			return nil, 0, "", StorageError("failed to fetch document", err)
		}
	}

	return obj, info.Size, info.ContentType, nil
}
