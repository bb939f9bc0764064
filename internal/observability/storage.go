package observability

import (
	"context"

	"shop-catalog/internal/storage"
)

type instrumentedStore struct {
	next    storage.ImageStore
	metrics *Metrics
}

// InstrumentStore counts every Put and Delete made through store
func (m *Metrics) InstrumentStore(store storage.ImageStore) storage.ImageStore {
	return &instrumentedStore{next: store, metrics: m}
}

func (s *instrumentedStore) Put(ctx context.Context, name, contentType string, data []byte) error {
	err := s.next.Put(ctx, name, contentType, data)
	s.metrics.ObserveStorage("put", err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, name string) error {
	err := s.next.Delete(ctx, name)
	s.metrics.ObserveStorage("delete", err)
	return err
}
