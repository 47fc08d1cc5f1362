package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/vecload/core"
	"github.com/poiesic/vecload/storage"
	"github.com/poiesic/vecload/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every collection creation.
type brokenStore struct {
	storage.CollectionStore
	err error
}

func (s *brokenStore) CreateCollection(ctx context.Context, name string, opts core.CollectionOptions) error {
	return s.err
}

func TestProvisioner_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	provisioner, err := NewProvisioner(store, nil)
	require.NoError(t, err)

	status, err := provisioner.EnsureCollection(ctx, "portfolio", 1536)
	require.NoError(t, err)
	assert.Equal(t, ProvisionCreated, status)

	status, err = provisioner.EnsureCollection(ctx, "portfolio", 1536)
	require.NoError(t, err, "second call is not fatal")
	assert.Equal(t, ProvisionAlreadyExists, status)

	// Existing collections are not compared on dimension.
	status, err = provisioner.EnsureCollection(ctx, "portfolio", 512)
	require.NoError(t, err)
	assert.Equal(t, ProvisionAlreadyExists, status)
	assert.Equal(t, "already exists", status.String())
}

func TestProvisioner_InvalidArguments(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	provisioner, err := NewProvisioner(store, nil)
	require.NoError(t, err)

	_, err = provisioner.EnsureCollection(context.Background(), "", 1536)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = provisioner.EnsureCollection(context.Background(), "portfolio", 0)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestProvisioner_StoreFailure(t *testing.T) {
	storeErr := errors.New("network unreachable")
	provisioner, err := NewProvisioner(&brokenStore{err: storeErr}, nil)
	require.NoError(t, err)

	_, err = provisioner.EnsureCollection(context.Background(), "portfolio", 1536)
	assert.ErrorIs(t, err, storeErr)
}

func TestProvisioner_WrappedConflict(t *testing.T) {
	conflict := &brokenStore{err: errors.Join(errors.New("EXISTING_COLLECTION_DIFFERENT_SETTINGS"), storage.ErrCollectionExists)}
	provisioner, err := NewProvisioner(conflict, nil)
	require.NoError(t, err)

	status, err := provisioner.EnsureCollection(context.Background(), "portfolio", 1536)
	require.NoError(t, err)
	assert.Equal(t, ProvisionAlreadyExists, status)
}

func TestNewProvisioner_RequiresStore(t *testing.T) {
	_, err := NewProvisioner(nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}
