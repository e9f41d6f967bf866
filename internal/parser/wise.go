package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// WiseParser parses Wise (TransferWise) balance statement CSV exports.
//
// Expected header starts with:
// "TransferWise ID",Date,"Date Time",Amount,Currency,Description,...
type WiseParser struct{}

var wiseTransferPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)enviou dinheiro para viny`),
	regexp.MustCompile(`(?i)recebeu dinheiro de viny`),
	regexp.MustCompile(`(?i)to viny`),
	regexp.MustCompile(`(?i)from viny`),
	regexp.MustCompile(`(?i)dinheiro adicionado`),
	regexp.MustCompile(`(?i)money added`),
}

var wiseCounterpartyPattern = regexp.MustCompile(`(?i)(?:para|de|to|from)\s+([^-]+)`)

func isWiseFormat(content string) bool {
	firstLine, _, _ := strings.Cut(content, "\n")
	for _, marker := range []string{"TransferWise ID", "Date", "Amount", "Currency", "Exchange Rate", "Transaction Type"} {
		if !strings.Contains(firstLine, marker) {
			return false
		}
	}
	return true
}

// Validate checks the overall file structure before parsing.
func (p *WiseParser) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return common.NewUserError("arquivo vazio", common.ErrInvalidFile)
	}
	if !isWiseFormat(content) {
		return common.NewUserError("formato não reconhecido como Wise", common.ErrInvalidFile)
	}
	if len(splitLines(content)) < 2 {
		return common.NewUserError("CSV não contém transações", common.ErrInvalidFile)
	}
	return nil
}

// Parse converts the statement into canonical transactions, dropping
// malformed rows silently. Wise statements only contain settled entries, so
// there is no status filter.
func (p *WiseParser) Parse(content string) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for _, row := range delimitedRows(content) {
		txn, ok := p.parseRow(row)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func (p *WiseParser) parseRow(row delimitedRow) (model.Transaction, bool) {
	// "27-09-2025" -> "2025-09-27"
	parts := strings.Split(row.fields["Date"], "-")
	if len(parts) != 3 {
		return model.Transaction{}, false
	}
	date := parts[2] + "-" + parts[1] + "-" + parts[0]

	amount, err := parseAmount(row.fields["Amount"])
	if err != nil {
		return model.Transaction{}, false
	}

	var txnType model.TransactionType
	switch row.fields["Transaction Type"] {
	case "CREDIT":
		txnType = model.TypeIncome
	case "DEBIT":
		txnType = model.TypeExpense
	default:
		if amount > 0 {
			txnType = model.TypeIncome
		} else {
			txnType = model.TypeExpense
		}
	}

	description := row.fields["Description"]
	if p.isInternalTransfer(description, row) {
		txnType = model.TypeTransfer
	}

	return model.Transaction{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      abs(amount),
		Currency:    row.fields["Currency"],
		Merchant:    p.extractMerchant(row),
		Notes:       p.buildNotes(row),
		Type:        txnType,
		RawData:     row.raw,
	}, true
}

func (p *WiseParser) isInternalTransfer(description string, row delimitedRow) bool {
	for _, re := range wiseTransferPatterns {
		if re.MatchString(description) {
			return true
		}
	}

	// Transfers between the owner's own accounts.
	if row.fields["Transaction Details Type"] == "TRANSFER" {
		payee := strings.ToLower(row.fields["Payee Name"])
		payer := strings.ToLower(row.fields["Payer Name"])
		if strings.Contains(payee, "viny") || strings.Contains(payer, "viny") {
			return true
		}
	}

	// Internal currency conversion / top-up.
	return row.fields["Transaction Details Type"] == "MONEY_ADDED"
}

// extractMerchant tries each source of counterparty information in order;
// the first non-empty result wins.
func (p *WiseParser) extractMerchant(row delimitedRow) string {
	if merchant := strings.TrimSpace(row.fields["Merchant"]); merchant != "" {
		return merchant
	}

	switch row.fields["Transaction Type"] {
	case "DEBIT":
		if payee := strings.TrimSpace(row.fields["Payee Name"]); payee != "" {
			return payee
		}
	case "CREDIT":
		if payer := strings.TrimSpace(row.fields["Payer Name"]); payer != "" {
			return payer
		}
	}

	if m := wiseCounterpartyPattern.FindStringSubmatch(row.fields["Description"]); m != nil {
		merchant := strings.TrimSpace(m[1])
		if merchant != "" && len(merchant) < maxMerchantLen {
			return merchant
		}
	}

	return ""
}

func (p *WiseParser) buildNotes(row delimitedRow) string {
	var notes []string

	if detailsType := row.fields["Transaction Details Type"]; detailsType != "" {
		notes = append(notes, "Tipo: "+detailsType)
	}

	if fees, err := parseAmount(row.fields["Total fees"]); err == nil && fees > 0 {
		notes = append(notes, fmt.Sprintf("Taxa: %s %.2f", row.fields["Currency"], fees))
	}

	rate := row.fields["Exchange Rate"]
	from := row.fields["Exchange From"]
	to := row.fields["Exchange To"]
	if rate != "" && from != "" && to != "" {
		notes = append(notes, fmt.Sprintf("Câmbio: %s -> %s (%s)", from, to, rate))
		if converted := row.fields["Exchange To Amount"]; converted != "" {
			notes = append(notes, "Valor convertido: "+converted)
		}
	}

	if account := row.fields["Payee Account Number"]; account != "" {
		notes = append(notes, "Conta: "+account)
	}

	if ref := strings.TrimSpace(row.fields["Payment Reference"]); ref != "" {
		notes = append(notes, "Ref: "+ref)
	}

	if note := strings.TrimSpace(row.fields["Note"]); note != "" {
		notes = append(notes, "Nota: "+note)
	}

	return strings.Join(notes, " | ")
}
