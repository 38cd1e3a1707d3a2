package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/models"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	logger := zap.NewNop()
	db, err := repository.NewDB("sqlite", "file:"+filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.MigrateDB(db, logger))
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, username string) int64 {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repository.NewUserRepository(db, zap.NewNop()).CreateUser(context.Background(), u))
	return u.ID
}

func ptr[T any](v T) *T { return &v }

// memBlobStore keeps blobs in memory and records every call.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string
	putErr  error
	delErr  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Put(_ context.Context, obj storage.Object) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.blobs[obj.Key] = obj.Data
	return "mem://" + obj.Key, nil
}

func (m *memBlobStore) Delete(_ context.Context, key string, _ models.MediaType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.blobs, key)
	return nil
}

func (m *memBlobStore) KeyFromURL(url string) string {
	if len(url) > len("mem://") && url[:len("mem://")] == "mem://" {
		return url[len("mem://"):]
	}
	return ""
}

func (m *memBlobStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	return keys
}

var errLinkFailed = errors.New("insert failed")

// failingMediaRepository refuses to record any media row.
type failingMediaRepository struct{}

func (failingMediaRepository) CreateImage(context.Context, *models.IncidentImage) error {
	return errLinkFailed
}

func (failingMediaRepository) CreateVideo(context.Context, *models.IncidentVideo) error {
	return errLinkFailed
}

func (failingMediaRepository) IsReferenced(context.Context, string) (bool, error) {
	return false, nil
}

// racingUserRepository finds no existing user on lookup but loses the insert
// to a concurrent registration.
type racingUserRepository struct{}

func (racingUserRepository) CreateUser(context.Context, *models.User) error {
	return fmt.Errorf("%w: unique violation", repository.ErrDuplicate)
}

func (racingUserRepository) GetUserByID(context.Context, int64) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (racingUserRepository) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (racingUserRepository) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
