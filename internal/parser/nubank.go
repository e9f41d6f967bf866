package parser

import (
	"regexp"
	"strings"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// NubankParser parses the loose SGML-flavored OFX files Nubank exports.
// Their statements routinely leave tags unclosed, so the repeating STMTTRN
// blocks are extracted with a non-greedy match and leaf fields are read with
// a closed-tag pattern first and a same-line unclosed-tag pattern second.
type NubankParser struct{}

var (
	nubankCurrencyPattern = regexp.MustCompile(`<CURDEF>([A-Z]{3})</CURDEF>`)
	nubankBlockPattern    = regexp.MustCompile(`(?s)<STMTTRN>(.*?)</STMTTRN>`)

	nubankTransferPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)pix.*vinycius`),
		regexp.MustCompile(`(?i)pix.*barreto`),
		regexp.MustCompile(`(?i)wise brasil`),
		regexp.MustCompile(`(?i)crédito em conta`),
		regexp.MustCompile(`(?i)transferência enviada pelo pix.*reversal`),
	}

	nubankMerchantPatterns = []*regexp.Regexp{
		// "Transferência recebida pelo Pix - Wise Brasil Corretora - ..."
		regexp.MustCompile(`(?i)pix\s*-\s*([^-]+?)(?:\s*-|$)`),
		// "Pagamento de fatura ..."
		regexp.MustCompile(`(?i)pagamento.*?(?:de|da)\s+(.+)`),
	}

	// Masked tax IDs and bank/branch suffixes are stripped from merchants.
	nubankMaskedCPF  = regexp.MustCompile(`•••\.\d{3}\.\d{3}-••`)
	nubankCNPJ       = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)
	nubankBankBranch = regexp.MustCompile(`(?i)\([^)]+\)\s*Agência:.*$`)
)

func isNubankFormat(content string) bool {
	return strings.Contains(content, "OFXHEADER") &&
		strings.Contains(content, "NU PAGAMENTOS") &&
		strings.Contains(content, "<STMTTRN>") &&
		strings.Contains(content, "<BANKTRANLIST>")
}

// Validate checks the overall file structure before parsing.
func (p *NubankParser) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return common.NewUserError("arquivo vazio", common.ErrInvalidFile)
	}
	if !isNubankFormat(content) {
		return common.NewUserError("formato não reconhecido como Nubank OFX", common.ErrInvalidFile)
	}
	if !strings.Contains(content, "<STMTTRN>") {
		return common.NewUserError("OFX não contém transações", common.ErrInvalidFile)
	}
	return nil
}

// Parse converts the statement into canonical transactions, dropping
// malformed blocks silently.
func (p *NubankParser) Parse(content string) ([]model.Transaction, error) {
	currency := "BRL"
	if m := nubankCurrencyPattern.FindStringSubmatch(content); m != nil {
		currency = m[1]
	}

	var transactions []model.Transaction
	for _, m := range nubankBlockPattern.FindAllStringSubmatch(content, -1) {
		txn, ok := p.parseBlock(m[1], currency)
		if !ok {
			continue
		}
		transactions = append(transactions, txn)
	}

	return transactions, nil
}

func (p *NubankParser) parseBlock(block, currency string) (model.Transaction, bool) {
	trnType, _ := extractOFXField(block, "TRNTYPE")
	fitID, _ := extractOFXField(block, "FITID")

	dtPosted, ok := extractOFXField(block, "DTPOSTED")
	if !ok {
		return model.Transaction{}, false
	}
	trnAmt, ok := extractOFXField(block, "TRNAMT")
	if !ok {
		return model.Transaction{}, false
	}
	memo, ok := extractOFXField(block, "MEMO")
	if !ok {
		return model.Transaction{}, false
	}

	date, ok := parseOFXDate(dtPosted)
	if !ok {
		return model.Transaction{}, false
	}

	amount, err := parseAmount(trnAmt)
	if err != nil {
		return model.Transaction{}, false
	}

	txnType := model.TypeExpense
	if trnType == "CREDIT" || amount > 0 {
		txnType = model.TypeIncome
	}
	for _, re := range nubankTransferPatterns {
		if re.MatchString(memo) {
			txnType = model.TypeTransfer
			break
		}
	}

	var notes []string
	if trnType != "" {
		notes = append(notes, "Tipo: "+trnType)
	}
	if fitID != "" {
		notes = append(notes, "ID: "+fitID)
	}

	return model.Transaction{
		Date:        date,
		Description: strings.TrimSpace(memo),
		Amount:      abs(amount),
		Currency:    currency,
		Merchant:    p.extractMerchant(memo),
		Notes:       strings.Join(notes, " | "),
		Type:        txnType,
		RawData:     block,
	}, true
}

// extractOFXField reads a leaf field from a transaction block. It accepts
// both <FIELD>value</FIELD> and the unclosed <FIELD>value form; absence is
// reported distinctly from an empty value.
func extractOFXField(block, field string) (string, bool) {
	closed := regexp.MustCompile(`(?i)<` + field + `>([^<]+)</` + field + `>`)
	if m := closed.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	unclosed := regexp.MustCompile(`(?i)<` + field + `>([^` + "\n" + `<]+)`)
	if m := unclosed.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	return "", false
}

// parseOFXDate converts "20250901000000[-3:BRT]" into "2025-09-01". The
// timezone suffix is stripped, not converted; the calendar date stays exactly
// as printed by the source.
func parseOFXDate(value string) (string, bool) {
	clean, _, _ := strings.Cut(value, "[")
	if len(clean) < 8 {
		return "", false
	}
	return clean[0:4] + "-" + clean[4:6] + "-" + clean[6:8], true
}

func (p *NubankParser) extractMerchant(memo string) string {
	for _, re := range nubankMerchantPatterns {
		m := re.FindStringSubmatch(memo)
		if m == nil {
			continue
		}

		merchant := strings.TrimSpace(m[1])
		merchant = strings.TrimSpace(nubankMaskedCPF.ReplaceAllString(merchant, ""))
		merchant = strings.TrimSpace(nubankCNPJ.ReplaceAllString(merchant, ""))
		merchant = strings.TrimSpace(nubankBankBranch.ReplaceAllString(merchant, ""))

		if merchant != "" && len(merchant) < maxMerchantLen {
			return merchant
		}
	}

	return ""
}
