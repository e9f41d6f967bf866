package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// RevolutParser parses Revolut account statement CSV exports.
//
// Expected header:
// Tipo,Produto,Data de início,Data de Conclusão,Descrição,Montante,Comissão,Moeda,Estado,Saldo
type RevolutParser struct{}

// Self-transfer phrasings, checked in order; first match reclassifies the
// row as a transfer regardless of sign.
var revolutTransferPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)to\s+.*viny`),
	regexp.MustCompile(`(?i)from\s+.*viny`),
	regexp.MustCompile(`(?i)arredondamento`),
	regexp.MustCompile(`(?i)revolut.*revolut`),
	regexp.MustCompile(`(?i)transfer to revolut`),
}

var revolutMerchantPatterns = []*regexp.Regexp{
	// Card payments carry the merchant after the descriptor delimiter.
	regexp.MustCompile(`(?i)pagamento.*?-\s*(.+)$`),
	// Transfers read "To X" / "From X".
	regexp.MustCompile(`(?i)(?:to|from)\s+([^-]+)`),
}

func isRevolutFormat(content string) bool {
	firstLine, _, _ := strings.Cut(content, "\n")
	for _, marker := range []string{"Tipo", "Produto", "Data de Conclusão", "Descrição", "Montante", "Saldo"} {
		if !strings.Contains(firstLine, marker) {
			return false
		}
	}
	return true
}

// Validate checks the overall file structure before parsing.
func (p *RevolutParser) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return common.NewUserError("arquivo vazio", common.ErrInvalidFile)
	}
	if !isRevolutFormat(content) {
		return common.NewUserError("formato não reconhecido como Revolut", common.ErrInvalidFile)
	}
	if len(splitLines(content)) < 2 {
		return common.NewUserError("CSV não contém transações", common.ErrInvalidFile)
	}
	return nil
}

// Parse converts the statement into canonical transactions. Only rows whose
// Estado is CONCLUÍDA (settled) are retained; pending rows and malformed rows
// are dropped silently.
func (p *RevolutParser) Parse(content string) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for _, row := range delimitedRows(content) {
		if row.fields["Estado"] != "CONCLUÍDA" {
			continue
		}

		txn, ok := p.parseRow(row)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func (p *RevolutParser) parseRow(row delimitedRow) (model.Transaction, bool) {
	// "2025-09-01 06:10:18" -> "2025-09-01"; the time of day and timezone
	// are discarded, not converted.
	date, _, _ := strings.Cut(row.fields["Data de Conclusão"], " ")
	if date == "" {
		return model.Transaction{}, false
	}

	amount, err := parseAmount(row.fields["Montante"])
	if err != nil {
		return model.Transaction{}, false
	}

	txnType := model.TypeExpense
	if amount > 0 {
		txnType = model.TypeIncome
	}

	description := row.fields["Descrição"]
	for _, re := range revolutTransferPatterns {
		if re.MatchString(description) {
			txnType = model.TypeTransfer
			break
		}
	}

	return model.Transaction{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      abs(amount),
		Currency:    row.fields["Moeda"],
		Merchant:    p.extractMerchant(description, row.fields["Tipo"]),
		Notes:       p.buildNotes(row),
		Type:        txnType,
		RawData:     row.raw,
	}, true
}

func (p *RevolutParser) extractMerchant(description, tipo string) string {
	for _, re := range revolutMerchantPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			merchant := strings.TrimSpace(m[1])
			if merchant != "" && len(merchant) < maxMerchantLen {
				return merchant
			}
		}
	}

	// Card payments without a descriptor carry the merchant name directly.
	if tipo == "Pagamento com cartão" {
		segment, _, _ := strings.Cut(strings.ReplaceAll(description, "-", ","), ",")
		segment = strings.TrimSpace(segment)
		if segment != "" && len(segment) < 50 {
			return segment
		}
	}

	return ""
}

func (p *RevolutParser) buildNotes(row delimitedRow) string {
	var notes []string

	if tipo := row.fields["Tipo"]; tipo != "" {
		notes = append(notes, "Tipo: "+tipo)
	}

	if fee, err := parseAmount(row.fields["Comissão"]); err == nil && fee > 0 {
		notes = append(notes, fmt.Sprintf("Comissão: €%.2f", fee))
	}

	if produto := row.fields["Produto"]; produto != "" && produto != "Atual" {
		notes = append(notes, "Produto: "+produto)
	}

	return strings.Join(notes, " | ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
