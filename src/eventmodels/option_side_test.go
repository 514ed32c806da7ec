package eventmodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOptionSide(t *testing.T) {
	t.Run("call spellings", func(t *testing.T) {
		for _, raw := range []string{"CE", "ce", "CALL", "call", "C"} {
			side, err := ParseOptionSide(raw)
			assert.NoError(t, err, raw)
			assert.Equal(t, OptionSideCall, side, raw)
		}
	})

	t.Run("put spellings", func(t *testing.T) {
		for _, raw := range []string{"PE", "pe", "PUT", "put", "P"} {
			side, err := ParseOptionSide(raw)
			assert.NoError(t, err, raw)
			assert.Equal(t, OptionSidePut, side, raw)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseOptionSide("straddle")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseOptionSide("")
		assert.Error(t, err)
	})
}

func TestOptionSideInstrumentType(t *testing.T) {
	assert.Equal(t, InstrumentTypeCE, OptionSideCall.InstrumentType())
	assert.Equal(t, InstrumentTypePE, OptionSidePut.InstrumentType())
}
