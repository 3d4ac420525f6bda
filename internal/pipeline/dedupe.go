package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"tethys-harvester/internal/model"
)

// Deduplicate collapses the record sequence to one Record per identifying
// key in a single pass. When two records share a key, the one from the
// DataFile with the later fetch timestamp survives; at equal timestamps the
// record later in the sequence wins. Records whose key fields are all empty
// are dropped and counted as invalid rather than merged under a blank key.
func Deduplicate(records []model.Record, keyFields []string, log *zap.SugaredLogger) *model.DeduplicatedSet {
	set := &model.DeduplicatedSet{Records: make(map[string]model.Record, len(records))}

	for _, rec := range records {
		key := DeriveKey(rec, keyFields)
		if key == "" {
			set.InvalidKeyCount++
			continue
		}

		existing, ok := set.Records[key]
		if !ok {
			set.Records[key] = rec
			continue
		}

		set.DuplicateCount++
		if supersedes(rec, existing) {
			set.Records[key] = rec
		}
	}

	log.Infof("🔍 Deduplication done: %d unique keys, %d duplicates removed, %d invalid keys",
		len(set.Records), set.DuplicateCount, set.InvalidKeyCount)
	return set
}

// supersedes reports whether the incoming record beats the one already held
// for the same key.
func supersedes(incoming, existing model.Record) bool {
	it, et := incoming.File.FetchedAt, existing.File.FetchedAt
	if !it.Equal(et) {
		return it.After(et) // trust the most recently downloaded copy
	}
	return incoming.Seq > existing.Seq // last write wins, for determinism
}

// DeriveKey builds the identifying key from the configured key columns. The
// derivation depends only on field contents, never on which file or run
// produced the record.
func DeriveKey(rec model.Record, keyFields []string) string {
	parts := make([]string, 0, len(keyFields))
	empty := true
	for _, field := range keyFields {
		part := normalizeKeyPart(rec.Fields[field])
		if part != "" {
			empty = false
		}
		parts = append(parts, part)
	}
	if empty {
		return ""
	}
	return strings.Join(parts, "|")
}

// normalizeKeyPart lowercases and collapses whitespace so cosmetic
// differences between files never defeat deduplication.
func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
