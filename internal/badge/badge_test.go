package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	b := New("nuget", "v2.1.0", ColorBlue)

	assert.Equal(t, 1, b.SchemaVersion)
	assert.Equal(t, "nuget", b.Label)
	assert.Equal(t, "v2.1.0", b.Message)
	assert.Equal(t, ColorBlue, b.Color)
	assert.False(t, b.IsError)
}

func TestErrorBadges(t *testing.T) {
	t.Parallel()

	notFound := NotFound("tests")
	assert.Equal(t, "not found", notFound.Message)
	assert.Equal(t, ColorLightGrey, notFound.Color)
	assert.True(t, notFound.IsError)

	unavailable := Unavailable("tests")
	assert.Equal(t, "unavailable", unavailable.Message)
	assert.Equal(t, ColorLightGrey, unavailable.Color)
	assert.True(t, unavailable.IsError)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	assert.JSONEq(t,
		`{"schemaVersion":1,"label":"tests","message":"42 passed","color":"brightgreen"}`,
		string(New("tests", "42 passed", ColorGreen).JSON()))

	// isError is emitted only when set.
	assert.JSONEq(t,
		`{"schemaVersion":1,"label":"tests","message":"not found","color":"lightgrey","isError":true}`,
		string(NotFound("tests").JSON()))
}
