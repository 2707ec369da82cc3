package types

import (
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Object is a string-keyed map that remembers insertion order.
// Overwriting a key keeps its original position.
type Object struct {
	m *linkedhashmap.Map
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{m: linkedhashmap.New()}
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.m.Get(key)
	if !ok {
		return Null(), false
	}
	return v.(Value), true
}

// Set stores v under key.
func (o *Object) Set(key string, v Value) {
	o.m.Put(key, v)
}

// Delete removes key.
func (o *Object) Delete(key string) {
	o.m.Remove(key)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.m.Get(key)
	return ok
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return o.m.Size()
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m.Size())
	for _, k := range o.m.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Each calls fn for every entry in insertion order.
func (o *Object) Each(fn func(key string, v Value)) {
	it := o.m.Iterator()
	for it.Next() {
		fn(it.Key().(string), it.Value().(Value))
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	c := NewObject()
	o.Each(func(k string, v Value) {
		c.Set(k, v.Clone())
	})
	return c
}

// Equal reports whether both objects hold equal values under the same
// keys. Order is not significant.
func (o *Object) Equal(other *Object) bool {
	if o.Len() != other.Len() {
		return false
	}
	equal := true
	o.Each(func(k string, v Value) {
		if !equal {
			return
		}
		w, ok := other.Get(k)
		equal = ok && Equal(v, w)
	})
	return equal
}

func (o *Object) render(sb *strings.Builder, path []*Instance) {
	sb.WriteByte('{')
	first := true
	o.Each(func(k string, v Value) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(k)
		sb.WriteString(": ")
		v.render(sb, path)
	})
	sb.WriteByte('}')
}
