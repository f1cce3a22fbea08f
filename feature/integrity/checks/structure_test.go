package checks

import (
	"context"
	"errors"
	"testing"

	"entity-mapper/core/storage"
	"entity-mapper/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var folders = RequiredFolders(storage.Config{CatalogPrefix: "catalog/", ExportPrefix: "exports"})

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "library").Return(false, nil)

		_, err := CheckStructure(context.Background(), mockClient, "library", folders)
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("Bucket Error", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "library").Return(false, errors.New("timeout"))

		_, err := CheckStructure(context.Background(), mockClient, "library", folders)
		assert.ErrorContains(t, err, "timeout")
	})

	t.Run("All Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "library").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "library", mock.Anything).Return(mocks.Objects())

		missing, err := CheckStructure(context.Background(), mockClient, "library", folders)
		assert.NoError(t, err)
		assert.Equal(t, []string{"catalog/", "exports"}, missing)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "library").Return(true, nil)
		for _, prefix := range []string{"catalog/", "exports/"} {
			prefix := prefix
			mockClient.On("ListObjects", mock.Anything, "library", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == prefix
			})).Return(mocks.Objects(prefix))
		}

		missing, err := CheckStructure(context.Background(), mockClient, "library", folders)
		assert.NoError(t, err)
		assert.Empty(t, missing)
	})
}

func TestFixStructure(t *testing.T) {
	mockClient := new(mocks.Client)
	mockClient.On("PutObject", mock.Anything, "library", "exports/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	err := FixStructure(context.Background(), mockClient, "library", zap.NewNop(), []string{"exports"})
	assert.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}
