package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/vinybarreto/extrato/internal/common"
	"github.com/vinybarreto/extrato/internal/model"
)

// OFXParser parses well-formed OFX/QFX statements from banks other than
// Nubank, using a real OFX parser instead of the loose block extraction.
type OFXParser struct {
	severityRegex *regexp.Regexp
	tagFixRegex   *regexp.Regexp
}

// NewOFXParser creates a new generic OFX parser.
func NewOFXParser() *OFXParser {
	return &OFXParser{
		severityRegex: regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`),
		tagFixRegex:   regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`),
	}
}

func isOFXFormat(content string) bool {
	return (strings.Contains(content, "OFXHEADER") || strings.Contains(content, "<OFX>")) &&
		strings.Contains(content, "<STMTTRN>")
}

// preprocess fixes common formatting issues in bank-exported OFX files.
func (p *OFXParser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	content = p.severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on a tag
	// that ends a line.
	content = p.tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Validate checks the overall file structure before parsing.
func (p *OFXParser) Validate(content string) error {
	if strings.TrimSpace(content) == "" {
		return common.NewUserError("arquivo vazio", common.ErrInvalidFile)
	}
	if !isOFXFormat(content) {
		return common.NewUserError("formato não reconhecido como OFX", common.ErrInvalidFile)
	}
	return nil
}

// Parse converts every bank and credit card statement in the file into
// canonical transactions.
func (p *OFXParser) Parse(content string) ([]model.Transaction, error) {
	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(content)))
	if err != nil {
		return nil, common.NewUserError("não foi possível interpretar o arquivo OFX", err)
	}

	var transactions []model.Transaction

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if ok && stmt.BankTranList != nil {
			currency := stmt.CurDef.String()
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convert(ofxTxn, currency))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if ok && stmt.BankTranList != nil {
			currency := stmt.CurDef.String()
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convert(ofxTxn, currency))
			}
		}
	}

	return transactions, nil
}

func (p *OFXParser) convert(ofxTxn ofxgo.Transaction, currency string) model.Transaction {
	amount, _ := ofxTxn.TrnAmt.Float64()
	trnType := fmt.Sprintf("%v", ofxTxn.TrnType)

	txnType := model.TypeExpense
	if trnType == "CREDIT" || amount > 0 {
		txnType = model.TypeIncome
	}
	// OFX marks transfers explicitly; no phrasing heuristics needed here.
	if trnType == "XFER" {
		txnType = model.TypeTransfer
	}

	var notes []string
	if trnType != "" {
		notes = append(notes, "Tipo: "+trnType)
	}
	if ofxTxn.FiTID != "" {
		notes = append(notes, "ID: "+string(ofxTxn.FiTID))
	}

	return model.Transaction{
		Date:        ofxTxn.DtPosted.Time.Format("2006-01-02"),
		Description: strings.TrimSpace(string(ofxTxn.Name)),
		Amount:      abs(amount),
		Currency:    currency,
		Merchant:    p.extractMerchant(ofxTxn),
		Notes:       strings.Join(notes, " | "),
		Type:        txnType,
		RawData:     fmt.Sprintf("%s|%s|%v|%s", ofxTxn.FiTID, ofxTxn.DtPosted, ofxTxn.TrnAmt, ofxTxn.Name),
	}
}

// extractMerchant prefers the PAYEE record, then falls back to the NAME
// field with common processor prefixes stripped.
func (p *OFXParser) extractMerchant(ofxTxn ofxgo.Transaction) string {
	if ofxTxn.Payee != nil && ofxTxn.Payee.Name != "" {
		return string(ofxTxn.Payee.Name)
	}

	name := strings.TrimSpace(string(ofxTxn.Name))
	if name == "" {
		name = strings.TrimSpace(string(ofxTxn.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	if name == "" || len(name) >= maxMerchantLen {
		return ""
	}
	return name
}
