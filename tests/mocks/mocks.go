package mocks

import (
	"context"

	"geoipload/internal/model"
)

type MockGeoStore struct {
	SaveGeoRowsFunc      func(ctx context.Context, rows []model.GeoRow) error
	GetNetworksCountFunc func(ctx context.Context) (int64, error)
}

func (m *MockGeoStore) SaveGeoRows(ctx context.Context, rows []model.GeoRow) error {
	return m.SaveGeoRowsFunc(ctx, rows)
}

func (m *MockGeoStore) GetNetworksCount(ctx context.Context) (int64, error) {
	return m.GetNetworksCountFunc(ctx)
}
