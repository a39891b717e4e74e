package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/mvdwal/sportlog/internal/activities"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	oneHour           = 60 * 60
	resultCacheExpire = oneHour * 6
)

// Snapshot is one fully processed tabular dataset. Snapshots are
// immutable once stored; a new upload replaces the previous snapshot
// wholesale.
type Snapshot struct {
	UploadedAt    time.Time               `json:"uploadedAt"`
	SourceName    string                  `json:"sourceName"`
	ContentHash   string                  `json:"contentHash"`
	Headers       []string                `json:"headers"`
	Mapping       activities.FieldMapping `json:"mapping"`
	MissingFields []string                `json:"missingFields"`
	Rows          []activities.RawRow     `json:"rows"`
	Activities    []activities.Activity   `json:"activities"`
	Report        activities.BuildReport  `json:"report"`
}

// FitSnapshot holds the decoded state of the last FIT upload batch.
// Like Snapshot, it is replaced wholesale on every upload.
type FitSnapshot struct {
	UploadedAt     time.Time             `json:"uploadedAt"`
	Files          int                   `json:"files"`
	Summaries      []activities.Summary  `json:"summaries"`
	Samples        []activities.Sample   `json:"samples"`
	DroppedRecords int                   `json:"droppedRecords"`
}

// Store keeps the per-service in-memory session state plus a cache of
// processed results, so re-uploading an identical file skips the
// normalization pipeline.
type Store struct {
	mu      sync.RWMutex
	dataset *Snapshot
	fit     *FitSnapshot

	resultsCache *freecache.Cache
}

func NewStore(cacheSize int) *Store {
	if cacheSize <= 0 {
		megabyte := 1024 * 1024
		cacheSize = 50 * megabyte
	}
	return &Store{
		resultsCache: freecache.NewCache(cacheSize),
	}
}

func (s *Store) Dataset() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

func (s *Store) ReplaceDataset(snapshot *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = snapshot
}

func (s *Store) Fit() *FitSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fit
}

func (s *Store) ReplaceFit(snapshot *FitSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fit = snapshot
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = nil
	s.fit = nil
	s.resultsCache.Clear()
}

// Fingerprint derives the results-cache key from the raw upload bytes
// and the mapping overrides in effect. Same bytes plus same overrides
// means the processed result is identical.
func Fingerprint(content []byte, overrides map[string]string) string {
	hash := sha256.New()
	hash.Write(content)

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		hash.Write([]byte(key))
		hash.Write([]byte{0})
		hash.Write([]byte(overrides[key]))
		hash.Write([]byte{0})
	}

	return hex.EncodeToString(hash.Sum(nil))
}

func (s *Store) CachedSnapshot(fingerprint string) (*Snapshot, bool) {
	snapshotBytes, err := s.resultsCache.Get([]byte(fingerprint))
	if err != nil {
		return nil, false
	}

	var snapshot Snapshot
	if err := json.Unmarshal(snapshotBytes, &snapshot); err != nil {
		log.Errorf("failed to unmarshal cached snapshot [%s]: %s", fingerprint, err)
		return nil, false
	}
	return &snapshot, true
}

func (s *Store) CacheSnapshot(fingerprint string, snapshot *Snapshot) {
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		log.Errorf("failed to marshal snapshot for cache [%s]: %s", fingerprint, err)
		return
	}
	if err := s.resultsCache.Set([]byte(fingerprint), snapshotBytes, resultCacheExpire); err != nil {
		log.Errorf("failed to write snapshot cache [%s]: %s", fingerprint, err)
	}
}
