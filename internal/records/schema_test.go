package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const registryYaml = `
integrations:
  - name: meetings
    action_field: action
    allowed_actions:
      - transcript.created
      - summary.created
    primary_key_field: recording_id
    text_field: transcript
    required_fields:
      - title
  - name: payments
    primary_key_field: charge_id
    text_field: description
`

func loadTestRegistry(t *testing.T) *Registry {
	reg, err := NewRegistryFromReader(strings.NewReader(registryYaml))
	require.NoError(t, err)
	return reg
}

func TestRegistryParsing(t *testing.T) {
	reg := loadTestRegistry(t)

	meetings, ok := reg.Get("meetings")
	assert.True(t, ok)
	assert.Equal(t, "recording_id", meetings.PrimaryKeyField)
	assert.Equal(t, "transcript", meetings.TextField)

	_, ok = reg.Get("unknown")
	assert.False(t, ok)

	assert.Len(t, reg.Names(), 2)
}

func TestRegistryRejectsIncompleteSchemas(t *testing.T) {
	_, err := NewRegistryFromReader(strings.NewReader(`
integrations:
  - name: broken
    text_field: body
`))
	assert.Error(t, err)

	_, err = NewRegistryFromReader(strings.NewReader(`
integrations:
  - primary_key_field: id
    text_field: body
`))
	assert.Error(t, err)
}

func TestActionAllowed(t *testing.T) {
	reg := loadTestRegistry(t)
	meetings, _ := reg.Get("meetings")

	assert.True(t, meetings.ActionAllowed("transcript.created"))
	assert.False(t, meetings.ActionAllowed("recording.deleted"))

	payments, _ := reg.Get("payments")
	assert.True(t, payments.ActionAllowed("anything"), "empty allow-list should accept all actions")
}

func TestValidate(t *testing.T) {
	reg := loadTestRegistry(t)
	meetings, _ := reg.Get("meetings")

	valid := Record{
		"action":       "transcript.created",
		"recording_id": "rec-1",
		"transcript":   "hello world",
		"title":        "standup",
	}
	assert.NoError(t, meetings.Validate(valid))

	t.Run("missing primary key", func(t *testing.T) {
		rec := Record{"action": "transcript.created", "transcript": "t", "title": "x"}
		err := meetings.Validate(rec)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty text", func(t *testing.T) {
		rec := Record{"action": "transcript.created", "recording_id": "rec-1", "transcript": "", "title": "x"}
		err := meetings.Validate(rec)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("whitespace-only text", func(t *testing.T) {
		rec := Record{"action": "transcript.created", "recording_id": "rec-1", "transcript": "   \n\t", "title": "x"}
		err := meetings.Validate(rec)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing required field", func(t *testing.T) {
		rec := Record{"action": "transcript.created", "recording_id": "rec-1", "transcript": "t"}
		err := meetings.Validate(rec)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("disallowed action", func(t *testing.T) {
		rec := Record{"action": "recording.deleted", "recording_id": "rec-1", "transcript": "t", "title": "x"}
		err := meetings.Validate(rec)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestValidateAllReportsRecordIndex(t *testing.T) {
	reg := loadTestRegistry(t)
	payments, _ := reg.Get("payments")

	recs := []Record{
		{"charge_id": "ch_1", "description": "invoice paid"},
		{"charge_id": "", "description": "invoice paid"},
	}
	err := payments.ValidateAll(recs)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "record 1")
}

func TestParsePayload(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		recs, err := ParsePayload([]byte(`{"charge_id":"ch_1","description":"d"}`))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		pk, err := recs[0].PrimaryKey("charge_id")
		require.NoError(t, err)
		assert.Equal(t, "ch_1", pk)
	})

	t.Run("array of objects", func(t *testing.T) {
		recs, err := ParsePayload([]byte(`[{"charge_id":"a"},{"charge_id":"b"}]`))
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParsePayload([]byte(`not json`))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestStringFieldCoercion(t *testing.T) {
	rec := Record{
		"int_id":   float64(42),
		"float_id": 42.5,
		"flag":     true,
	}
	v, ok := rec.StringField("int_id")
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	v, ok = rec.StringField("float_id")
	assert.True(t, ok)
	assert.Equal(t, "42.5", v)

	v, ok = rec.StringField("flag")
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = rec.StringField("missing")
	assert.False(t, ok)
}
