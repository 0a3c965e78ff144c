package config

import (
	"log"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	MinioClient *minio.Client

	// MinioBucket is the bucket holding thesis draft and feedback files.
	MinioBucket string
)

// InitStorage connects to the MinIO object store. The service keeps
// running if the store is unreachable at startup; bucket creation is
// retried lazily on first use.
func InitStorage() {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	MinioBucket = os.Getenv("MINIO_BUCKET")
	if MinioBucket == "" {
		MinioBucket = "thesis-documents"
	}

	if endpoint == "" {
		log.Println("MINIO_ENDPOINT not set, object storage disabled")
		return
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Fatal("Failed to create MinIO client:", err)
	}

	MinioClient = client
	log.Printf("Object storage configured (endpoint=%s bucket=%s)", endpoint, MinioBucket)
}
