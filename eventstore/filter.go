package eventstore

import (
	"cmp"
	"slices"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter selects a "dynamic event stream". An empty Filter (no items) selects every event.
type Filter struct {
	items []FilterItem
}

func (f Filter) Items() []FilterItem {
	return f.items
}

// MatchesAll reports whether the Filter has no items and therefore selects every event.
func (f Filter) MatchesAll() bool {
	return len(f.items) == 0
}

/***** FilterItem *****/

// FilterItem is one OR-branch of a Filter: (eventType OR eventType...) AND (predicates).
type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

// HasEventType reports whether eventType is one of the item's event types.
// The builder keeps event types sorted, so this is a binary search.
func (fi FilterItem) HasEventType(eventType FilterEventTypeString) bool {
	_, found := slices.BinarySearch(fi.eventTypes, eventType)

	return found
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

/***** FilterPredicate *****/

// FilterPredicate matches a top-level payload key against a string value.
type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic event filter which the engines translate into their own query language.
// It only allows the combinations the circulation features need:
//
//   - empty filter
//   - (eventType OR eventType...)
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - multiple of the above joined with OR -> multiple FilterItem(s)
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates an empty Filter.
	MatchingAnyEvent() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty EventTypes ("")
	//	- sorting the EventTypes
	//	- removing duplicate EventTypes
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates
}

type FilterItemBuilderLackingPredicates interface {
	// AndAnyPredicateOf adds predicates of which ANY must match.
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// AndAllPredicatesOf adds predicates of which ALL must match.
	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

// MatchingAnyEvent creates an empty Filter which selects all events.
func (fb filterBuilder) MatchingAnyEvent() Filter {
	return Filter{}
}

// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.eventTypes = sortedUnique(
		append([]FilterEventTypeString{eventType}, eventTypes...),
		func(e FilterEventTypeString) bool { return e == "" },
		cmp.Compare[FilterEventTypeString],
	)

	return fb
}

// AndAnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
//
// It sanitizes the input:
//   - removing empty/partial FilterPredicate(s) (key or val is "")
//   - sorting the FilterPredicate(s)
//   - removing duplicate FilterPredicate(s)
func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.predicates = fb.sanitizePredicates(predicate, predicates...)
	fb.currentFilterItem.allPredicatesMustMatch = false

	return fb
}

// AndAllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	fb.currentFilterItem.predicates = fb.sanitizePredicates(predicate, predicates...)
	fb.currentFilterItem.allPredicatesMustMatch = true

	return fb
}

func (fb filterBuilder) sanitizePredicates(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) []FilterPredicate {

	return sortedUnique(
		append([]FilterPredicate{predicate}, predicates...),
		func(p FilterPredicate) bool { return p.key == "" || p.val == "" },
		func(a, b FilterPredicate) int { return cmp.Or(cmp.Compare(a.key, b.key), cmp.Compare(a.val, b.val)) },
	)
}

// sortedUnique drops the values rejected by skip, sorts the rest and removes duplicates.
func sortedUnique[T comparable](values []T, skip func(T) bool, compare func(a, b T) int) []T {
	values = slices.DeleteFunc(values, skip)
	slices.SortFunc(values, compare)

	return slices.Clip(slices.Compact(values))
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(slices.Clip(fb.filter.items), fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}

	return fb
}

// Finalize returns the Filter once it has at least one FilterItem with at least one EventType.
func (fb filterBuilder) Finalize() Filter {
	if len(fb.currentFilterItem.eventTypes) > 0 {
		fb.filter.items = append(slices.Clip(fb.filter.items), fb.currentFilterItem)
	}

	return fb.filter
}
