package parser

import (
	"strings"

	"github.com/vinybarreto/extrato/internal/model"
)

// Filename-based guesses cap at this confidence; structural matches are 1.0.
const nameGuessConfidence = 0.7

// Detect inspects file content and name and returns the best-guess source
// format. Structural checks run first, in a fixed priority order, so a
// misnamed file with correct structure still resolves correctly; filename
// heuristics are only a fallback. Pure function, no side effects.
func Detect(content, fileName string) model.DetectionResult {
	// Nubank must come before the generic OFX check: its files carry the
	// OFX header but need the loose parser.
	if isNubankFormat(content) {
		return model.DetectionResult{Format: model.FormatNubank, Confidence: 1.0, Kind: model.FileKindOFX}
	}

	if isOFXFormat(content) {
		return model.DetectionResult{Format: model.FormatOFX, Confidence: 1.0, Kind: model.FileKindOFX}
	}

	if isRevolutFormat(content) {
		return model.DetectionResult{Format: model.FormatRevolut, Confidence: 1.0, Kind: model.FileKindCSV}
	}

	if isWiseFormat(content) {
		return model.DetectionResult{Format: model.FormatWise, Confidence: 1.0, Kind: model.FileKindCSV}
	}

	lower := strings.ToLower(fileName)

	if strings.Contains(lower, "revolut") || strings.Contains(lower, "account-statement") {
		return model.DetectionResult{Format: model.FormatRevolut, Confidence: nameGuessConfidence, Kind: model.FileKindCSV}
	}

	if strings.Contains(lower, "wise") || strings.Contains(lower, "transferwise") || strings.Contains(lower, "balance_statement") {
		return model.DetectionResult{Format: model.FormatWise, Confidence: nameGuessConfidence, Kind: model.FileKindCSV}
	}

	if strings.Contains(lower, "nubank") || strings.Contains(lower, "nu_") || strings.Contains(lower, ".ofx") {
		return model.DetectionResult{Format: model.FormatNubank, Confidence: nameGuessConfidence, Kind: model.FileKindOFX}
	}

	if strings.Contains(lower, ".qfx") {
		return model.DetectionResult{Format: model.FormatOFX, Confidence: nameGuessConfidence, Kind: model.FileKindOFX}
	}

	return model.DetectionResult{Format: model.FormatUnknown, Confidence: 0, Kind: model.FileKindUnknown}
}
