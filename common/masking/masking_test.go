package masking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
)

func TestMaskIdentifier(t *testing.T) {
	masked, err := MaskIdentifier("11122233344")
	require.NoError(t, err)
	assert.Equal(t, "***.222.333-**", masked)

	// Formatted input masks identically to bare digits
	formatted, err := MaskIdentifier("111.222.333-44")
	require.NoError(t, err)
	assert.Equal(t, masked, formatted)
}

func TestMaskIdentifier_Deterministic(t *testing.T) {
	a, err := MaskIdentifier("55566677788")
	require.NoError(t, err)
	b, err := MaskIdentifier("55566677788")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMaskIdentifier_NeverLeaksLongDigitRuns(t *testing.T) {
	masked, err := MaskIdentifier("12345678901")
	require.NoError(t, err)

	// No contiguous run of more than 3 original digits survives
	var run int
	for _, r := range masked {
		if r >= '0' && r <= '9' {
			run++
			assert.LessOrEqual(t, run, 3)
		} else {
			run = 0
		}
	}
	assert.NotContains(t, masked, "1234")
}

func TestMaskIdentifier_RejectsWrongLength(t *testing.T) {
	_, err := MaskIdentifier("12345")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = MaskIdentifier("")
	require.Error(t, err)
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Ana Silva", "A. S."},
		{"João Souza", "J. S."},
		{"carlos aguiar", "C. A."},
		{"Maria da Silva Santos", "M. D. S. S."},
		{"  Padded   Name  ", "P. N."},
		{"Solo", "S."},
	}

	for _, tt := range tests {
		got, err := MaskName(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestMaskName_RejectsEmpty(t *testing.T) {
	_, err := MaskName("   ")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestNewEntry(t *testing.T) {
	entry, err := NewEntry("11122233344", "Ana Silva", 1)
	require.NoError(t, err)

	assert.Equal(t, "***.222.333-**", entry.MaskedID)
	assert.Equal(t, "A. S.", entry.MaskedName)
	assert.Equal(t, 1, entry.Position)

	// The raw values must not appear anywhere in the entry
	assert.False(t, strings.Contains(entry.MaskedID, "11122233344"))
	assert.False(t, strings.Contains(entry.MaskedName, "Ana"))
}
