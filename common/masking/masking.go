// Package masking applies one-way redaction to personal identifiers before
// they are embedded in a committed version. A version can never be amended,
// so masking happens exactly once, at entry-creation time.
package masking

import (
	"strings"
	"unicode"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/apperror"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

// identifierDigits is the required length of a raw identifier (CPF)
const identifierDigits = 11

// MaskIdentifier redacts an 11-digit identifier, keeping only the middle
// span of digits: "11122233344" -> "***.222.333-**".
func MaskIdentifier(raw string) (string, error) {
	digits := onlyDigits(raw)
	if len(digits) != identifierDigits {
		return "", apperror.E(apperror.KindValidation, "identifier must have %d digits", identifierDigits)
	}
	return "***." + digits[3:6] + "." + digits[6:9] + "-**", nil
}

// MaskName reduces a name to the initials of each whitespace-separated
// token: "Ana Silva" -> "A. S.".
func MaskName(raw string) (string, error) {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return "", apperror.E(apperror.KindValidation, "name must not be empty")
	}
	initials := make([]string, len(parts))
	for i, p := range parts {
		initials[i] = strings.ToUpper(string([]rune(p)[0]))
	}
	return strings.Join(initials, ". ") + ".", nil
}

// NewEntry masks a raw identifier and name into a waitlist entry at the
// given position. The raw values are never stored.
func NewEntry(rawID, rawName string, position int) (models.Entry, error) {
	maskedID, err := MaskIdentifier(rawID)
	if err != nil {
		return models.Entry{}, err
	}
	maskedName, err := MaskName(rawName)
	if err != nil {
		return models.Entry{}, err
	}
	return models.Entry{
		MaskedID:   maskedID,
		MaskedName: maskedName,
		Position:   position,
	}, nil
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
