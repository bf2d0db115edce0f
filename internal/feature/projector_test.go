package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecord(pairs ...any) Record {
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

func TestReplaceAttributesRenames(t *testing.T) {
	records := []Record{
		makeRecord("cust_name", "X", "status", "open"),
	}
	nameMap := AttributeMap{"cust_name": "customer_name", "status": "status"}

	out := ReplaceAttributes(records, nameMap)

	require.Len(t, out, 1)
	v, ok := out[0].Get("customer_name")
	require.True(t, ok)
	assert.Equal(t, "X", v)
	assert.False(t, out[0].Has("cust_name"))

	v, _ = out[0].Get("status")
	assert.Equal(t, "open", v)
}

func TestReplaceAttributesDropsUnmapped(t *testing.T) {
	records := []Record{
		makeRecord("keep", 1, "drop_me", 2),
	}

	out := ReplaceAttributes(records, AttributeMap{"keep": "kept"})

	require.Len(t, out, 1)
	assert.Equal(t, []string{"kept"}, out[0].Fields())
}

func TestReplaceAttributesPure(t *testing.T) {
	rec := makeRecord("a", 1, "b", 2)
	records := []Record{rec}

	ReplaceAttributes(records, AttributeMap{"a": "x"})

	// Input record untouched
	assert.Equal(t, []string{"a", "b"}, rec.Fields())
	v, _ := rec.Get("a")
	assert.Equal(t, 1, v)
}

func TestReplaceAttributesPreservesOrder(t *testing.T) {
	records := []Record{
		makeRecord("r1", 1),
		makeRecord("r1", 2),
		makeRecord("r1", 3),
	}

	out := ReplaceAttributes(records, AttributeMap{"r1": "m1"})

	require.Len(t, out, 3)
	for i, want := range []int{1, 2, 3} {
		v, _ := out[i].Get("m1")
		assert.Equal(t, want, v)
	}
}

func TestRemoveAttributes(t *testing.T) {
	records := []Record{
		makeRecord("id", 7, "name", "A"),
		makeRecord("name", "B"),
	}

	out := RemoveAttributes(records, []string{"id", "absent"})

	require.Len(t, out, 2)
	assert.False(t, out[0].Has("id"))
	assert.True(t, out[0].Has("name"))
	assert.True(t, out[1].Has("name"))

	// Input records untouched
	assert.True(t, records[0].Has("id"))
}
