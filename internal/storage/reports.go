package storage

import (
	"encoding/json"
	"errors"
	"slices"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/hakim/surfacerecon/internal/models"
)

// ErrNotFound is returned when no report exists for an id or domain.
var ErrNotFound = errors.New("report not found")

// SaveReport persists a report and indexes it under its domain
func (s *Store) SaveReport(r *models.ScanReport) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketReports)).Put([]byte(r.ID), data); err != nil {
			return err
		}

		// domain -> []report id
		index := tx.Bucket([]byte(bucketReportIndex))
		key := []byte(r.Domain)

		var ids []string
		if existing := index.Get(key); existing != nil {
			if err := json.Unmarshal(existing, &ids); err != nil {
				return err
			}
		}
		if slices.Contains(ids, r.ID) {
			return nil
		}
		ids = append(ids, r.ID)

		indexData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return index.Put(key, indexData)
	})
}

// GetReport retrieves a report by id
func (s *Store) GetReport(id string) (*models.ScanReport, error) {
	var r *models.ScanReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketReports)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		r = &models.ScanReport{}
		return json.Unmarshal(data, r)
	})

	return r, err
}

// ListReports returns every report for a domain, newest first
func (s *Store) ListReports(domain string) ([]*models.ScanReport, error) {
	var reports []*models.ScanReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketReportIndex)).Get([]byte(domain))
		if data == nil {
			return nil
		}

		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}

		bucket := tx.Bucket([]byte(bucketReports))
		for _, id := range ids {
			raw := bucket.Get([]byte(id))
			if raw == nil {
				continue
			}
			var r models.ScanReport
			if err := json.Unmarshal(raw, &r); err != nil {
				return err
			}
			reports = append(reports, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports, nil
}

// LatestPair returns the two most recent reports for a domain (newest first),
// for diffing. Fewer than two stored reports is ErrNotFound.
func (s *Store) LatestPair(domain string) (newer, older *models.ScanReport, err error) {
	reports, err := s.ListReports(domain)
	if err != nil {
		return nil, nil, err
	}
	if len(reports) < 2 {
		return nil, nil, ErrNotFound
	}
	return reports[0], reports[1], nil
}
