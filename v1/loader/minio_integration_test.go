package loader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioUser     = "minio_admin"
	minioPassword = "minio_admin"
)

// startMinio runs a MinIO server and returns its host:port endpoint.
func startMinio(ctx context.Context, t *testing.T) string {
	t.Helper()
	port := nat.Port("9000/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-01-16T16-07-38Z",
			Cmd:          []string{"server", "/data"},
			Env:          map[string]string{"MINIO_ROOT_USER": minioUser, "MINIO_ROOT_PASSWORD": minioPassword},
			ExposedPorts: []string{string(port)},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(port).WithStartupTimeout(30*time.Second),
				wait.ForHTTP("/minio/health/ready").WithPort(port).WithStartupTimeout(30*time.Second),
			),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}

func TestLoader_ObjectStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	endpoint := startMinio(ctx, t)

	admin, err := minio.New(endpoint, &minio.Options{Creds: credentials.NewStaticV4(minioUser, minioPassword, "")})
	require.NoError(t, err)
	require.NoError(t, admin.MakeBucket(ctx, "imports", minio.MakeBucketOptions{}))

	body := `[{"id":"o-1","pk":"A"},{"id":"o-2","pk":"A"},{"id":"o-3","pk":"B"}]`
	_, err = admin.PutObject(ctx, "imports", "orders/2024.json", strings.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	require.NoError(t, err)

	ld, err := New(DefaultConfig().WithObjectStore(endpoint, minioUser, minioPassword, false))
	require.NoError(t, err)

	docs, err := ld.LoadDocuments(ctx, "s3://imports/orders/2024.json")
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	_, err = ld.Open(ctx, "s3://imports/orders/absent.json")
	assert.ErrorIs(t, err, ErrNotFound)

	small, err := New(DefaultConfig().WithObjectStore(endpoint, minioUser, minioPassword, false).WithMaxObjectSize(10))
	require.NoError(t, err)
	_, err = small.Open(ctx, "s3://imports/orders/2024.json")
	assert.ErrorIs(t, err, ErrTooLarge)
}
