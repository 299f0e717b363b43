package service_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

// MockStore is a mock for the catalog store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Name() string {
	return "mock"
}

func (m *MockStore) GetAll(ctx context.Context) ([]domain.Title, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Title), args.Error(1)
}

func (m *MockStore) Exists(ctx context.Context, name string, year int) (bool, error) {
	args := m.Called(ctx, name, year)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Add(ctx context.Context, t domain.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, t domain.Title) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockStore) Delete(ctx context.Context, name string, year int) error {
	args := m.Called(ctx, name, year)
	return args.Error(0)
}

func (m *MockStore) Search(ctx context.Context, query string) ([]domain.Title, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Title), args.Error(1)
}

func (m *MockStore) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Title, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Title), args.Error(1)
}

func (m *MockStore) FindByKind(ctx context.Context, kind domain.Kind) ([]domain.Title, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Title), args.Error(1)
}

func (m *MockStore) Close() error {
	return nil
}

// MockMetadataProvider is a mock for the metadata lookup
type MockMetadataProvider struct {
	mock.Mock
}

func (m *MockMetadataProvider) SearchByTitle(ctx context.Context, query string) (domain.Title, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(domain.Title), args.Error(1)
}

func (m *MockMetadataProvider) SearchByID(ctx context.Context, id int64) (domain.Title, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Title), args.Error(1)
}

// MockSink is a mock snapshot sink that keeps what it was given
type MockSink struct {
	mock.Mock
	body []byte
}

func (m *MockSink) Store(ctx context.Context, key string, r io.Reader) error {
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.body = body
	args := m.Called(ctx, key)
	return args.Error(0)
}
