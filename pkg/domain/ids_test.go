package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fidelis/pkg/domain-errors"
)

func TestParseBondID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseBondID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseBondID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseBondID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseBondID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, BondID(valid), id)
	})

	t.Run("rejects padded input", func(t *testing.T) {
		_, err := ParseBondID(" " + uuid.New().String() + " ")
		require.Error(t, err)
	})

	t.Run("rejects uppercase-mangled input with suffix", func(t *testing.T) {
		_, err := ParseBondID(strings.ToUpper(uuid.New().String()) + "x")
		require.Error(t, err)
	})
}

func TestParseDocumentID_RoundTrip(t *testing.T) {
	id := NewDocumentID()
	parsed, err := ParseDocumentID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSessionID(t *testing.T) {
	_, err := ParseSessionID("bogus")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	valid := uuid.New()
	id, err := ParseSessionID(valid.String())
	require.NoError(t, err)
	assert.Equal(t, SessionID(valid), id)
}

// TestTypeDistinction verifies the compiler enforces type safety between ID
// kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	bondID := BondID(uuid.New())
	docID := DocumentID(uuid.New())

	// These would fail to compile if the types were interchangeable:
	// var _ BondID = docID       // compile error
	// var _ DocumentID = bondID  // compile error

	assert.NotEqual(t, uuid.UUID(bondID), uuid.UUID(docID))
}

func TestBondID_JSONRendersAsString(t *testing.T) {
	id := NewBondID()

	raw, err := json.Marshal(struct {
		ID BondID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.String()+`"}`, string(raw))

	var decoded struct {
		ID BondID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.ID)
}
