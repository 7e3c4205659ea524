package journal

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
)

type SelectorEntryTypeString = string
type SelectorKeyString = string
type SelectorValString = string

/***** Selector *****/

// Selector describes a dynamic stream: the union of all journal entries whose
// entry type and payload match at least one of its items.
type Selector struct {
	items         []SelectorItem
	afterSequence SequenceNumber
}

func (s Selector) Items() []SelectorItem {
	return s.items
}

// AfterSequenceNumber returns the exclusive lower sequence bound, 0 meaning none.
func (s Selector) AfterSequenceNumber() SequenceNumber {
	return s.afterSequence
}

// AfterSequence returns a copy of the Selector that only matches entries with a
// sequence number strictly greater than seq. Used for incremental projection
// reads on top of a snapshot; it does not change the selector's Hash.
func (s Selector) AfterSequence(seq SequenceNumber) Selector {
	s.afterSequence = seq
	return s
}

// Hash returns a stable hash of the selector's shape (items only, not the
// sequence bound), suitable as a snapshot key.
func (s Selector) Hash() string {
	var sb strings.Builder

	for _, item := range s.items {
		sb.WriteString("types:")
		sb.WriteString(strings.Join(item.entryTypes, ","))
		sb.WriteString(";predicates:")

		for _, p := range item.predicates {
			sb.WriteString(p.key)
			sb.WriteString("=")
			sb.WriteString(p.val)
			sb.WriteString(",")
		}

		sb.WriteString(fmt.Sprintf(";all:%t|", item.allPredicatesMustMatch))
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(sb.String()))

	return fmt.Sprintf("%016x", h.Sum64())
}

/***** SelectorItem *****/

type SelectorItem struct {
	entryTypes             []SelectorEntryTypeString
	predicates             []SelectorPredicate
	allPredicatesMustMatch bool
}

func (si SelectorItem) EntryTypes() []SelectorEntryTypeString {
	return si.entryTypes
}

func (si SelectorItem) Predicates() []SelectorPredicate {
	return si.predicates
}

func (si SelectorItem) AllPredicatesMustMatch() bool {
	return si.allPredicatesMustMatch
}

/***** SelectorPredicate *****/

type SelectorPredicate struct {
	key SelectorKeyString
	val SelectorValString
}

func P(key SelectorKeyString, val SelectorValString) SelectorPredicate {
	return SelectorPredicate{key: key, val: val}
}

func (sp SelectorPredicate) Key() SelectorKeyString {
	return sp.key
}

func (sp SelectorPredicate) Val() SelectorValString {
	return sp.val
}

/***** SelectorBuilder *****/

// SelectorBuilder builds a generic stream selector to be used by DB type-specific
// journal engines to build queries for the specific query language, e.g.: Postgres, SQLite, ...
// It is designed with the idea to only allow "useful" selector combinations for
// event-sourced workflows:
//
//   - empty selector
//   - (entryType)
//   - (entryType OR entryType...)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - (entryType AND predicate)
//   - (entryType AND (predicate OR predicate...))
//   - (entryType AND (predicate AND predicate...))
//   - ((entryType OR entryType...) AND (predicate OR predicate...))
//   - ((entryType OR entryType...) AND (predicate AND predicate...))
//   - ((entryType AND predicate) OR (entryType AND predicate)...) -> multiple SelectorItem(s)
type SelectorBuilder interface {
	// Matching starts a new SelectorItem.
	Matching() EmptySelectorItemBuilder

	// MatchingAnyEntry directly creates an empty Selector.
	MatchingAnyEntry() Selector
}

type EmptySelectorItemBuilder interface {
	// AnyEntryTypeOf adds one or multiple entry types to the current SelectorItem.
	//
	// It sanitizes the input:
	//	- removing empty entry types ("")
	//	- sorting the entry types
	//	- removing duplicate entry types
	AnyEntryTypeOf(entryType SelectorEntryTypeString, entryTypes ...SelectorEntryTypeString) SelectorItemBuilderLackingPredicates

	// AnyPredicateOf adds one or multiple SelectorPredicate(s) to the current SelectorItem.
	//
	// It sanitizes the input:
	//	- removing empty/partial SelectorPredicate(s) (key or val is "")
	//	- sorting the SelectorPredicate(s)
	//	- removing duplicate SelectorPredicate(s)
	AnyPredicateOf(predicate SelectorPredicate, predicates ...SelectorPredicate) SelectorItemBuilderLackingEntryTypes

	AllPredicatesOf(predicate SelectorPredicate, predicates ...SelectorPredicate) SelectorItemBuilderLackingEntryTypes
}

type SelectorItemBuilderLackingPredicates interface {
	// AndAnyPredicateOf adds one or multiple SelectorPredicate(s) to the current SelectorItem.
	AndAnyPredicateOf(predicate SelectorPredicate, predicates ...SelectorPredicate) CompletedSelectorItemBuilder

	AndAllPredicatesOf(predicate SelectorPredicate, predicates ...SelectorPredicate) CompletedSelectorItemBuilder

	// OrMatching finalizes the current SelectorItem and starts a new one.
	OrMatching() EmptySelectorItemBuilder

	// Finalize returns the Selector once it has at least one SelectorItem with at least one entry type OR one predicate.
	Finalize() Selector
}

type SelectorItemBuilderLackingEntryTypes interface {
	// AndAnyEntryTypeOf adds one or multiple entry types to the current SelectorItem.
	AndAnyEntryTypeOf(entryType SelectorEntryTypeString, entryTypes ...SelectorEntryTypeString) CompletedSelectorItemBuilder

	// OrMatching finalizes the current SelectorItem and starts a new one.
	OrMatching() EmptySelectorItemBuilder

	// Finalize returns the Selector once it has at least one SelectorItem with at least one entry type OR one predicate.
	Finalize() Selector
}

type CompletedSelectorItemBuilder interface {
	// OrMatching finalizes the current SelectorItem and starts a new one.
	OrMatching() EmptySelectorItemBuilder

	// Finalize returns the Selector once it has at least one SelectorItem with at least one entry type OR one predicate.
	Finalize() Selector
}

// selectorBuilder implements all the interfaces of SelectorBuilder.
type selectorBuilder struct {
	selector            Selector
	currentSelectorItem SelectorItem
}

// BuildSelector creates a SelectorBuilder which must eventually be finalized
// with Finalize() or MatchingAnyEntry().
func BuildSelector() SelectorBuilder {
	return selectorBuilder{}
}

// Matching starts a new SelectorItem.
func (sb selectorBuilder) Matching() EmptySelectorItemBuilder {
	sb.currentSelectorItem = SelectorItem{}

	return sb
}

// AnyEntryTypeOf adds one or multiple entry types to the current SelectorItem expecting ANY of them to match.
//
// It sanitizes the input:
//   - removing empty entry types ("")
//   - sorting the entry types
//   - removing duplicate entry types
func (sb selectorBuilder) AnyEntryTypeOf(
	entryType SelectorEntryTypeString,
	entryTypes ...SelectorEntryTypeString,
) SelectorItemBuilderLackingPredicates {

	sb.currentSelectorItem.entryTypes = append(
		sb.currentSelectorItem.entryTypes,
		sb.sanitizeEntryTypes(entryType, entryTypes...)...,
	)

	return sb
}

// AndAnyEntryTypeOf adds one or multiple entry types to the current SelectorItem expecting ANY of them to match.
func (sb selectorBuilder) AndAnyEntryTypeOf(
	entryType SelectorEntryTypeString,
	entryTypes ...SelectorEntryTypeString,
) CompletedSelectorItemBuilder {

	return sb.AnyEntryTypeOf(entryType, entryTypes...)
}

func (sb selectorBuilder) sanitizeEntryTypes(
	entryType SelectorEntryTypeString,
	entryTypes ...SelectorEntryTypeString,
) []SelectorEntryTypeString {

	allEntryTypes := append([]SelectorEntryTypeString{entryType}, entryTypes...)
	allEntryTypes = slices.DeleteFunc(
		allEntryTypes,
		func(e SelectorEntryTypeString) bool {
			return e == ""
		})
	slices.Sort(allEntryTypes)
	allEntryTypes = slices.Compact(allEntryTypes)
	allEntryTypes = slices.Clip(allEntryTypes)

	return allEntryTypes
}

// AnyPredicateOf adds one or multiple SelectorPredicate(s) to the current SelectorItem expecting ANY predicate to match.
//
// It sanitizes the input:
//   - removing empty/partial SelectorPredicate(s) (key or val is "")
//   - sorting the SelectorPredicate(s)
//   - removing duplicate SelectorPredicate(s)
func (sb selectorBuilder) AnyPredicateOf(
	predicate SelectorPredicate,
	predicates ...SelectorPredicate,
) SelectorItemBuilderLackingEntryTypes {

	sb.currentSelectorItem.predicates = append(
		sb.currentSelectorItem.predicates,
		sb.sanitizePredicates(predicate, predicates...)...,
	)

	return sb
}

// AndAnyPredicateOf adds one or multiple SelectorPredicate(s) to the current SelectorItem expecting ANY predicate to match.
func (sb selectorBuilder) AndAnyPredicateOf(
	predicate SelectorPredicate,
	predicates ...SelectorPredicate,
) CompletedSelectorItemBuilder {

	return sb.AnyPredicateOf(predicate, predicates...)
}

// AllPredicatesOf adds one or multiple SelectorPredicate(s) to the current SelectorItem expecting ALL predicates to match.
func (sb selectorBuilder) AllPredicatesOf(
	predicate SelectorPredicate,
	predicates ...SelectorPredicate,
) SelectorItemBuilderLackingEntryTypes {

	sb.currentSelectorItem.allPredicatesMustMatch = true

	sb.currentSelectorItem.predicates = append(
		sb.currentSelectorItem.predicates,
		sb.sanitizePredicates(predicate, predicates...)...,
	)

	return sb
}

// AndAllPredicatesOf adds one or multiple SelectorPredicate(s) to the current SelectorItem expecting ALL predicates to match.
func (sb selectorBuilder) AndAllPredicatesOf(
	predicate SelectorPredicate,
	predicates ...SelectorPredicate,
) CompletedSelectorItemBuilder {

	return sb.AllPredicatesOf(predicate, predicates...)
}

func (sb selectorBuilder) sanitizePredicates(
	predicate SelectorPredicate,
	predicates ...SelectorPredicate,
) []SelectorPredicate {

	allPredicates := append([]SelectorPredicate{predicate}, predicates...)
	allPredicates = slices.DeleteFunc(allPredicates, func(e SelectorPredicate) bool { return len(e.key) == 0 || len(e.val) == 0 })
	slices.SortFunc(
		allPredicates,
		func(a, b SelectorPredicate) int {
			if a.key != b.key {
				return strings.Compare(a.key, b.key)
			}

			return strings.Compare(a.val, b.val)
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current SelectorItem and starts a new one.
func (sb selectorBuilder) OrMatching() EmptySelectorItemBuilder {
	sb.selector.items = append(sb.selector.items, sb.currentSelectorItem)
	sb.currentSelectorItem = SelectorItem{}

	return sb
}

// MatchingAnyEntry directly creates an empty selector.
func (sb selectorBuilder) MatchingAnyEntry() Selector {
	return sb.selector
}

// Finalize returns the Selector once it has at least one SelectorItem with at least one entry type OR one predicate.
func (sb selectorBuilder) Finalize() Selector {
	sb.selector.items = append(sb.selector.items, sb.currentSelectorItem)

	return sb.selector
}
