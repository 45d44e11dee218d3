// Package bolt persiste preferencias y dispositivos en un archivo
// bbolt local, suficiente para un BFF de instancia única.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"safepets-citas/internal/ports/devicestore"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketPreferencias = []byte("preferencias")
	bucketDispositivos = []byte("dispositivos")
)

type Store struct {
	db *bolt.DB
}

var _ devicestore.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: abrir %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPreferencias); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketDispositivos)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: crear buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Preferencias(_ context.Context, email string) (devicestore.Preferencias, error) {
	var p devicestore.Preferencias
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketPreferencias).Get([]byte(email))
		if raw == nil {
			return devicestore.ErrNotFound
		}
		return json.Unmarshal(raw, &p)
	})
	if err != nil {
		return devicestore.Preferencias{}, err
	}
	return p, nil
}

func (s *Store) GuardarPreferencias(_ context.Context, email string, p devicestore.Preferencias) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("bolt: marshal preferencias: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferencias).Put([]byte(email), raw)
	})
}

func (s *Store) Dispositivo(_ context.Context, email string) (devicestore.Dispositivo, error) {
	var d devicestore.Dispositivo
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDispositivos).Get([]byte(email))
		if raw == nil {
			return devicestore.ErrNotFound
		}
		return json.Unmarshal(raw, &d)
	})
	if err != nil {
		return devicestore.Dispositivo{}, err
	}
	return d, nil
}

func (s *Store) GuardarDispositivo(_ context.Context, d devicestore.Dispositivo) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("bolt: marshal dispositivo: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDispositivos).Put([]byte(d.Email), raw)
	})
}
