package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderPayloadShapes(t *testing.T) {

	cases := map[string]string{
		"flat":          `["id","name"]`,
		"columns":       `{"columns":["id","name"]}`,
		"header":        `{"header":["id","name"]}`,
		"any one array": `{"version":3,"fields":["id","name"]}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var h Header
			require.NoError(t, json.Unmarshal([]byte(payload), &h))
			assert.Equal(t, Header{"id", "name"}, h)
		})
	}

	var h Header
	assert.Error(t, json.Unmarshal([]byte(`{"a":["x"],"b":["y"]}`), &h))
	assert.Error(t, json.Unmarshal([]byte(`"id"`), &h))
}

func TestHeaderMarshal(t *testing.T) {

	out, err := json.Marshal(Header{"id", "team"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["id","team"]}`, string(out))

	out, err = json.Marshal(Header(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":[]}`, string(out))
}

func TestHeaderMissingAndExtend(t *testing.T) {

	h := Header{"id", "name", "email", "status"}

	assert.Equal(t, []string{"team", "floor"}, h.Missing([]string{"id", "team", "floor", "team"}))
	assert.Nil(t, h.Missing([]string{"id", "status"}))

	extended := h.Extend("team", "id")
	assert.Equal(t, Header{"id", "name", "email", "status", "team"}, extended)
	assert.Len(t, h, 4, "extend does not touch the receiver")
}

func TestRecordScalars(t *testing.T) {

	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":12,"name":"Anna","active":true,"note":null,"tags":["a"]}`), &r))

	assert.Equal(t, "12", r.Get("id"))
	assert.Equal(t, "Anna", r.Get("name"))
	assert.Equal(t, "true", r.Get("active"))
	assert.Equal(t, "", r.Get("note"))
	assert.Equal(t, `["a"]`, r.Get("tags"))
	assert.Equal(t, []string{"active", "id", "name", "note", "tags"}, r.Keys())
}

func TestToPage(t *testing.T) {

	rows := make([]Record, 20)

	short := FetchResult{Rows: rows}
	assert.True(t, short.ToPage(3, 50, 100).IsLast, "short page ends the data")

	full := FetchResult{Rows: make([]Record, 50)}
	assert.False(t, full.ToPage(1, 50, 0).IsLast)

	full.Total, full.TotalKnown = 100, true
	assert.True(t, full.ToPage(2, 50, 50).IsLast, "known total reached")

	empty := FetchResult{Total: 0, TotalKnown: true}
	page := empty.ToPage(1, 50, 0)
	assert.True(t, page.IsLast)
	assert.Zero(t, page.Len())
}
