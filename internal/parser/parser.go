// Package parser converts raw bank statement files into canonical
// transaction records. Each supported source format implements
// StatementParser; callers never branch on format beyond dispatch.
package parser

import (
	"fmt"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// StatementParser is implemented once per supported source format.
// Validate is called before Parse and is the only place a whole file can be
// rejected; Parse drops individual malformed rows and continues.
type StatementParser interface {
	Validate(content string) error
	Parse(content string) ([]model.Transaction, error)
}

// ForFormat returns the parser for a detected source format.
func ForFormat(format model.SourceFormat) (StatementParser, error) {
	switch format {
	case model.FormatRevolut:
		return &RevolutParser{}, nil
	case model.FormatWise:
		return &WiseParser{}, nil
	case model.FormatNubank:
		return &NubankParser{}, nil
	case model.FormatOFX:
		return NewOFXParser(), nil
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownFormat, format)
	}
}

// maxMerchantLen bounds extracted merchant names; anything longer is treated
// as a failed extraction rather than a merchant.
const maxMerchantLen = 100
