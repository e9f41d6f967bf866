package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vinybarreto/extrato/internal/model"
)

const genericOFXStatement = `OFXHEADER:100
DATA:OFXSGML

<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<CURDEF>USD
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250901
<TRNAMT>-10.00
<FITID>1
<MEMO>coffee
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestDetect(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		fileName       string
		wantFormat     model.SourceFormat
		wantKind       model.FileKind
		wantConfidence float64
	}{
		{
			name:           "revolut by structure",
			content:        revolutHeader + "\nrow",
			fileName:       "whatever.csv",
			wantFormat:     model.FormatRevolut,
			wantKind:       model.FileKindCSV,
			wantConfidence: 1.0,
		},
		{
			name:           "wise by structure",
			content:        wiseHeader + "\nrow",
			fileName:       "export.csv",
			wantFormat:     model.FormatWise,
			wantKind:       model.FileKindCSV,
			wantConfidence: 1.0,
		},
		{
			name:           "nubank beats generic ofx",
			content:        nubankStatement,
			fileName:       "statement.ofx",
			wantFormat:     model.FormatNubank,
			wantKind:       model.FileKindOFX,
			wantConfidence: 1.0,
		},
		{
			name:           "generic ofx by structure",
			content:        genericOFXStatement,
			fileName:       "statement.ofx",
			wantFormat:     model.FormatOFX,
			wantKind:       model.FileKindOFX,
			wantConfidence: 1.0,
		},
		{
			name:           "revolut by file name",
			content:        "unrecognizable",
			fileName:       "account-statement_2025.csv",
			wantFormat:     model.FormatRevolut,
			wantKind:       model.FileKindCSV,
			wantConfidence: 0.7,
		},
		{
			name:           "wise by file name",
			content:        "unrecognizable",
			fileName:       "balance_statement.csv",
			wantFormat:     model.FormatWise,
			wantKind:       model.FileKindCSV,
			wantConfidence: 0.7,
		},
		{
			name:           "nubank by file name",
			content:        "unrecognizable",
			fileName:       "NU_123456.ofx",
			wantFormat:     model.FormatNubank,
			wantKind:       model.FileKindOFX,
			wantConfidence: 0.7,
		},
		{
			name:           "qfx by file name",
			content:        "unrecognizable",
			fileName:       "export.qfx",
			wantFormat:     model.FormatOFX,
			wantKind:       model.FileKindOFX,
			wantConfidence: 0.7,
		},
		{
			name:           "unknown",
			content:        "some,random,csv\n1,2,3",
			fileName:       "data.csv",
			wantFormat:     model.FormatUnknown,
			wantKind:       model.FileKindUnknown,
			wantConfidence: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.content, tt.fileName)
			assert.Equal(t, tt.wantFormat, result.Format)
			assert.Equal(t, tt.wantKind, result.Kind)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 0.001)
		})
	}
}

func TestDetectStructureBeatsFileName(t *testing.T) {
	// A Wise export misnamed as a Revolut file must still resolve as Wise.
	result := Detect(wiseHeader+"\nrow", "revolut-export.csv")
	assert.Equal(t, model.FormatWise, result.Format)
	assert.InDelta(t, 1.0, result.Confidence, 0.001)
}

func TestForFormat(t *testing.T) {
	for _, format := range []model.SourceFormat{model.FormatRevolut, model.FormatWise, model.FormatNubank, model.FormatOFX} {
		p, err := ForFormat(format)
		assert.NoError(t, err, format)
		assert.NotNil(t, p, format)
	}

	_, err := ForFormat(model.FormatUnknown)
	assert.Error(t, err)
}
