package dskind

import (
	"reflect"
	"sort"
)

// FieldFilter is a single-property equality predicate. Path names an exported
// field of the record. When the field is a repeated property (a slice), the
// filter matches if any element equals Value, which is how the backing store
// treats equality on array properties.
type FieldFilter struct {
	Path  string
	Value any
}

// Eq builds a single-property equality filter.
func Eq(path string, value any) FieldFilter {
	return FieldFilter{Path: path, Value: value}
}

// EntityFilter is an equality predicate over the items of one embedded
// repeated structure: Collection names a slice-of-struct field on the record,
// and Fields maps item field names to expected values. A record matches only
// if a single item satisfies every field, never by combining fields from
// different items.
type EntityFilter struct {
	Collection string
	Fields     map[string]any
}

// EqIn builds a multi-field equality filter over one embedded collection.
func EqIn(collection string, fields map[string]any) EntityFilter {
	return EntityFilter{Collection: collection, Fields: fields}
}

// Paths returns the dotted property paths of the filter in sorted order,
// e.g. "Logins.ProviderKey". The backing store indexes flattened embedded
// collections under these names.
func (f EntityFilter) Paths() []string {
	paths := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		paths = append(paths, f.Collection+"."+name)
	}
	sort.Strings(paths)
	return paths
}

// Match reports whether the record satisfies the filter.
func (f FieldFilter) Match(record any) bool {
	v := fieldByName(record, f.Path)
	if !v.IsValid() {
		return false
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < v.Len(); i++ {
			if reflect.DeepEqual(v.Index(i).Interface(), f.Value) {
				return true
			}
		}
		return false
	}
	return reflect.DeepEqual(v.Interface(), f.Value)
}

// Match reports whether the record holds at least one collection item
// satisfying every field of the filter. This is the per-item-AND semantic:
// the store flattens embedded collections when indexing, so backend results
// for multi-path queries must be re-verified with this method to rule out
// matches assembled from different items.
func (f EntityFilter) Match(record any) bool {
	coll := fieldByName(record, f.Collection)
	if !coll.IsValid() || coll.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < coll.Len(); i++ {
		if f.matchItem(coll.Index(i)) {
			return true
		}
	}
	return false
}

func (f EntityFilter) matchItem(item reflect.Value) bool {
	item = reflect.Indirect(item)
	if item.Kind() != reflect.Struct {
		return false
	}
	for name, want := range f.Fields {
		got := item.FieldByName(name)
		if !got.IsValid() || !reflect.DeepEqual(got.Interface(), want) {
			return false
		}
	}
	return true
}

func fieldByName(record any, name string) reflect.Value {
	v := reflect.Indirect(reflect.ValueOf(record))
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return v.FieldByName(name)
}
