package activity

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"solana-gate/internal/storage"
)

// StorageSink persists entries to SQLite via storage.DB. Insert
// failures are logged and swallowed — a broken sink must never affect
// a gate decision (spec §7).
type StorageSink struct {
	db *storage.DB
}

// NewStorageSink wraps an already-open database handle.
func NewStorageSink(db *storage.DB) *StorageSink {
	return &StorageSink{db: db}
}

func (s *StorageSink) Emit(e Entry) {
	details := "{}"
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			details = string(b)
		} else {
			log.Warn().Err(err).Msg("activity storage sink: failed to marshal details")
		}
	}

	row := &storage.ActivityLogRow{
		TokenSymbol:  e.TokenSymbol,
		TokenAddress: e.TokenAddress,
		Level:        string(e.Level),
		Category:     string(e.Category),
		Message:      e.Message,
		DetailsJSON:  details,
		Timestamp:    e.Timestamp.Unix(),
	}
	if err := s.db.InsertActivityLog(row); err != nil {
		log.Warn().Err(err).Msg("activity storage sink: failed to persist entry")
	}
}

// MultiSink fans an entry out to several sinks. Each Emit is called in
// turn, synchronously, in the order given: a slow sink delays the ones
// after it, and a panic in one sink is not recovered.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks, e.g. an in-memory tailer and a
// persistent store, into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Emit(e Entry) {
	for _, sink := range m.sinks {
		sink.Emit(e)
	}
}
