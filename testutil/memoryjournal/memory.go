// Package memoryjournal provides an in-memory journal double with the same
// Read/Append contract as the real engines, including selector matching and
// optimistic conditional appends. It is safe for concurrent use so handler
// tests can exercise real races without a database.
package memoryjournal

import (
	"context"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulation-go/journal"
)

type storedEntry struct {
	sequenceNumber journal.SequenceNumber
	entry          journal.Entry
	payloadFields  map[string]any
}

// Journal is an in-memory journal engine for tests.
type Journal struct {
	mu      sync.Mutex
	entries []storedEntry
	nextSeq journal.SequenceNumber
}

// New creates an empty in-memory journal.
func New() *Journal {
	return &Journal{nextSeq: 1}
}

// Read returns all entries matching the selector in append order, together
// with the max sequence number of the matching stream.
func (j *Journal) Read(_ context.Context, selector journal.Selector) (
	journal.Entries,
	journal.SequenceNumber,
	error,
) {
	j.mu.Lock()
	defer j.mu.Unlock()

	matching, maxSeq := j.matchLocked(selector)

	result := make(journal.Entries, 0, len(matching))
	for _, stored := range matching {
		result = append(result, stored.entry)
	}

	return result, maxSeq, nil
}

// Append appends the entries if and only if the max sequence number of the
// stream matched by the selector still equals expectedMaxSequenceNumber.
func (j *Journal) Append(
	_ context.Context,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
	entry journal.Entry,
	additionalEntries ...journal.Entry,
) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, maxSeq := j.matchLocked(selector)
	if maxSeq != expectedMaxSequenceNumber {
		return journal.ErrConflict
	}

	allEntries := journal.Entries{entry}
	allEntries = append(allEntries, additionalEntries...)

	for _, e := range allEntries {
		fields, err := payloadFields(e)
		if err != nil {
			return err
		}

		j.entries = append(j.entries, storedEntry{
			sequenceNumber: j.nextSeq,
			entry:          e,
			payloadFields:  fields,
		})
		j.nextSeq++
	}

	return nil
}

// EntryCount returns the total number of appended entries.
func (j *Journal) EntryCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.entries)
}

// AllEntries returns every appended entry in append order.
func (j *Journal) AllEntries() journal.Entries {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := make(journal.Entries, 0, len(j.entries))
	for _, stored := range j.entries {
		result = append(result, stored.entry)
	}

	return result
}

func (j *Journal) matchLocked(selector journal.Selector) ([]storedEntry, journal.SequenceNumber) {
	var matching []storedEntry
	var maxSeq journal.SequenceNumber

	for _, stored := range j.entries {
		if !matches(selector, stored) {
			continue
		}

		if stored.sequenceNumber > maxSeq {
			maxSeq = stored.sequenceNumber
		}

		if stored.sequenceNumber > selector.AfterSequenceNumber() {
			matching = append(matching, stored)
		}
	}

	return matching, maxSeq
}

func matches(selector journal.Selector, stored storedEntry) bool {
	items := selector.Items()
	if len(items) == 0 {
		return true
	}

	for _, item := range items {
		if itemMatches(item, stored) {
			return true
		}
	}

	return false
}

func itemMatches(item journal.SelectorItem, stored storedEntry) bool {
	if len(item.EntryTypes()) > 0 && !containsType(item.EntryTypes(), stored.entry.EntryType) {
		return false
	}

	predicates := item.Predicates()
	if len(predicates) == 0 {
		return true
	}

	if item.AllPredicatesMustMatch() {
		for _, predicate := range predicates {
			if !predicateMatches(predicate, stored.payloadFields) {
				return false
			}
		}

		return true
	}

	for _, predicate := range predicates {
		if predicateMatches(predicate, stored.payloadFields) {
			return true
		}
	}

	return false
}

func containsType(entryTypes []string, entryType string) bool {
	for _, candidate := range entryTypes {
		if candidate == entryType {
			return true
		}
	}

	return false
}

func predicateMatches(predicate journal.SelectorPredicate, fields map[string]any) bool {
	value, ok := fields[predicate.Key()]
	if !ok {
		return false
	}

	stringValue, ok := value.(string)

	return ok && stringValue == predicate.Val()
}

func payloadFields(entry journal.Entry) (map[string]any, error) {
	fields := make(map[string]any)
	if err := jsoniter.ConfigFastest.Unmarshal(entry.PayloadJSON, &fields); err != nil {
		return nil, err
	}

	return fields, nil
}
