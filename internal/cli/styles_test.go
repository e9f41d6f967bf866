package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBox(t *testing.T) {
	out := RenderBox("Resumo", "3 importadas, 1 duplicada")

	assert.Contains(t, out, "Resumo")
	assert.Contains(t, out, "3 importadas, 1 duplicada")
}

func TestFormatHelpersCarryIcons(t *testing.T) {
	assert.Contains(t, FormatSuccess("ok"), SuccessIcon)
	assert.Contains(t, FormatError("falhou"), ErrorIcon)
	assert.Contains(t, FormatWarning("cuidado"), WarningIcon)
	assert.Contains(t, FormatTitle("extrato"), BankIcon)
}
