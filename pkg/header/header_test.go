package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListPreservesOrderAndCase(t *testing.T) {
	var l List
	l.Add("X-First", "1")
	l.Add("content-type", "text/plain")
	l.Add("X-First", "2")

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, "content-type", l[1].Type)
	assert.Equal(t, []string{"1", "2"}, l.Values("x-first"))
	assert.Equal(t, "X-First: 1", l[0].String())
}

func TestListCaseInsensitiveLookup(t *testing.T) {
	l := List{{Type: "content-type", Value: "application/json"}}

	v, ok := l.Get(ContentType)
	assert.True(t, ok)
	assert.Equal(t, "application/json", v)
	assert.True(t, l.Has("CONTENT-TYPE"))
	assert.False(t, l.Has(Server))
}

func TestListClone(t *testing.T) {
	l := List{{Type: "A", Value: "1"}}
	c := l.Clone()
	c[0].Value = "2"

	assert.Equal(t, "1", l[0].Value)
	assert.Nil(t, List(nil).Clone())
	assert.Equal(t, map[string][]string{"A": {"1"}}, l.Map())
}

func TestListEachStopsEarly(t *testing.T) {
	l := List{{Type: "A", Value: "1"}, {Type: "B", Value: "2"}, {Type: "C", Value: "3"}}

	var seen []string
	l.Each(func(h Header) bool {
		seen = append(seen, h.Type)
		return h.Type != "B"
	})
	assert.Equal(t, []string{"A", "B"}, seen)
}
