package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"rigcheck/internal/models"
	"rigcheck/internal/observability"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrBuildNotFound is returned for missing builds and for builds owned by someone else
var ErrBuildNotFound = errors.New("build not found")

const buildKeyPrefix = "build/"

// BuildService persists saved analyses in BadgerDB.
// Builds are written once on save and removed on delete; nothing updates them.
type BuildService struct {
	db      *badger.DB
	metrics *observability.Metrics
	now     func() time.Time
}

// NewBuildService creates a store over an open database
func NewBuildService(db *badger.DB, metrics *observability.Metrics) *BuildService {
	return &BuildService{db: db, metrics: metrics, now: time.Now}
}

func userPrefix(userID string) []byte {
	return []byte(buildKeyPrefix + url.PathEscape(userID) + "/")
}

func buildKey(userID, id string) []byte {
	return append(userPrefix(userID), id...)
}

// Create saves a new build for userID
func (s *BuildService) Create(ctx context.Context, userID string, req models.AnalysisRequest, result models.AnalysisResult) (*models.Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id is required")
	}

	recs := result.Recommendations
	if recs == nil {
		recs = []string{}
	}
	build := &models.Build{
		ID:              uuid.NewString(),
		UserID:          userID,
		CPU:             req.CPU,
		GPU:             req.GPU,
		RAM:             req.RAM,
		Result:          result,
		Recommendations: recs,
		CreatedAt:       s.now().UTC(),
	}
	data, err := json.Marshal(build)
	if err != nil {
		return nil, fmt.Errorf("encode build: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(buildKey(userID, build.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}
	s.count("create")
	return build, nil
}

// Get returns one build owned by userID
func (s *BuildService) Get(ctx context.Context, userID, id string) (*models.Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var build models.Build
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(buildKey(userID, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &build)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBuildNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load build %s: %w", id, err)
	}
	return &build, nil
}

// List returns all builds of userID, newest first
func (s *BuildService) List(ctx context.Context, userID string) ([]models.Build, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	builds := []models.Build{}
	prefix := userPrefix(userID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var b models.Build
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			builds = append(builds, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}

	sort.SliceStable(builds, func(i, j int) bool {
		return builds[i].CreatedAt.After(builds[j].CreatedAt)
	})
	return builds, nil
}

// Delete removes a build owned by userID
func (s *BuildService) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := buildKey(userID, id)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrBuildNotFound
	}
	if err != nil {
		return fmt.Errorf("delete build %s: %w", id, err)
	}
	s.count("delete")
	return nil
}

func (s *BuildService) count(op string) {
	if s.metrics != nil {
		s.metrics.BuildsTotal.WithLabelValues(op).Inc()
	}
}
