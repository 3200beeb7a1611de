package parsers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp CSV: %v", err)
	}
	return path
}

func TestLedgerParserBasic(t *testing.T) {
	csv := `Date,Amount,Description
2025-03-10,"R 1,234.56",Ref CSH891089488 - (Jenet 6452843846)
2025-03-11,(500.00),IMMEDIATE TRF CREDIT SETTLEMENT - Mandla Zulu
`
	path := writeTempCSV(t, "ledger.csv", csv)

	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	records, stats, err := parser.ParseLedger(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseLedger: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if stats.RecordsParsed != 2 {
		t.Errorf("records parsed = %d, want 2", stats.RecordsParsed)
	}

	first := records[0]
	if !first.Amount.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("first amount = %s, want 1234.56", first.Amount)
	}
	if first.Reference == nil || first.Reference.String() != "CSH891089488" {
		t.Errorf("first reference = %v, want CSH891089488", first.Reference)
	}
	if first.Payee != "Jenet" {
		t.Errorf("first payee = %q, want Jenet", first.Payee)
	}
	if !first.DateValid {
		t.Error("first record should have a valid date")
	}

	second := records[1]
	if !second.Amount.Equal(decimal.RequireFromString("-500")) {
		t.Errorf("second amount = %s, want -500", second.Amount)
	}
	if second.Payee != "Mandla Zulu" {
		t.Errorf("second payee = %q, want Mandla Zulu", second.Payee)
	}
}

func TestLedgerParserDebitCreditColumns(t *testing.T) {
	csv := `Date,Debit,Credit,Description
2025-03-10,250.00,,CASH WITHDRAWAL FEE
2025-03-10,,1000.00,BRANCH DEPOSIT
`
	path := writeTempCSV(t, "ledger_dc.csv", csv)

	config := DefaultLedgerParserConfig()
	config.AmountColumn = ""
	parser, err := NewLedgerParser(config)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	records, _, err := parser.ParseLedger(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseLedger: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if !records[0].Amount.Equal(decimal.RequireFromString("-250")) {
		t.Errorf("debit row amount = %s, want -250", records[0].Amount)
	}
	if !records[1].Amount.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("credit row amount = %s, want 1000", records[1].Amount)
	}
}

func TestLedgerParserDefectiveRowsKept(t *testing.T) {
	csv := `Date,Amount,Description
not-a-date,100.00,STANDARD BANK T NGWENYA
2025-03-10,garbage,BRANCH DEPOSIT
`
	path := writeTempCSV(t, "ledger_bad.csv", csv)

	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	records, stats, err := parser.ParseLedger(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseLedger: %v", err)
	}

	// Defective rows survive with safe defaults instead of being dropped.
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].DateValid {
		t.Error("unparseable date should leave the record flagged invalid")
	}
	if !records[1].Amount.IsZero() {
		t.Errorf("unparseable amount = %s, want 0", records[1].Amount)
	}
	if stats.InvalidDates != 1 {
		t.Errorf("invalid dates = %d, want 1", stats.InvalidDates)
	}
	if stats.InvalidAmounts != 1 {
		t.Errorf("invalid amounts = %d, want 1", stats.InvalidAmounts)
	}
}

func TestLedgerParserHeaderAliases(t *testing.T) {
	csv := `Transaction Date,Value,Narration
10/03/2025,750.00,ADT CASH DEPO02113002 0849667217
`
	path := writeTempCSV(t, "ledger_alias.csv", csv)

	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	records, _, err := parser.ParseLedger(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseLedger: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Payee != "0849667217" {
		t.Errorf("payee = %q, want 0849667217", records[0].Payee)
	}
	if got := records[0].DateKey(); got != "2025-03-10" {
		t.Errorf("date key = %q, want 2025-03-10", got)
	}
}

func TestLedgerParserReferenceColumn(t *testing.T) {
	csv := `Date,Amount,Description,Ref
2025-03-10,100.00,Payment RJ111222 - Jenet,TX998877
2025-03-11,200.00,Payment RJ333444 - Sipho Dlamini,pending
`
	path := writeTempCSV(t, "ledger_ref.csv", csv)

	config := DefaultLedgerParserConfig()
	config.ReferenceColumn = "Ref"

	parser, err := NewLedgerParser(config)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	records, _, err := parser.ParseLedger(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseLedger: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Valid code in the dedicated column overrides the description.
	if records[0].Reference == nil || records[0].Reference.String() != "TX998877" {
		t.Errorf("first reference = %v, want TX998877", records[0].Reference)
	}
	// Unparseable cell falls back to the description code.
	if records[1].Reference == nil || records[1].Reference.String() != "RJ333444" {
		t.Errorf("second reference = %v, want RJ333444", records[1].Reference)
	}
}

func TestLedgerParserReferenceColumnMissing(t *testing.T) {
	csv := `Date,Amount,Description
2025-03-10,100.00,Payment RJ111222 - Jenet
`
	path := writeTempCSV(t, "ledger_noref.csv", csv)

	config := DefaultLedgerParserConfig()
	config.ReferenceColumn = "Ref"

	parser, err := NewLedgerParser(config)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	if _, _, err := parser.ParseLedger(context.Background(), path); err == nil {
		t.Fatal("expected error for configured reference column absent from file")
	}
}

func TestLedgerParserMissingColumn(t *testing.T) {
	csv := `Date,SomethingElse
2025-03-10,100.00
`
	path := writeTempCSV(t, "ledger_missing.csv", csv)

	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	if _, _, err := parser.ParseLedger(context.Background(), path); err == nil {
		t.Error("missing amount and description columns should fail the parse")
	}
}

func TestLedgerParserFileNotFound(t *testing.T) {
	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser: %v", err)
	}

	if _, _, err := parser.ParseLedger(context.Background(), "/no/such/file.csv"); err == nil {
		t.Error("missing file should fail the parse")
	}
}

func TestStatementParserBasic(t *testing.T) {
	csv := `Date,Amount,Description
2025-03-10,1250.00,Reversal: CSH564980448: 6505166670
2025-03-10,-80.50,TRANSFER FROM CAPITEC J VAN WYK
`
	path := writeTempCSV(t, "statement.csv", csv)

	parser, err := NewStatementParser(nil)
	if err != nil {
		t.Fatalf("NewStatementParser: %v", err)
	}

	records, stats, err := parser.ParseStatement(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if stats.HasErrors() {
		t.Errorf("unexpected parse errors: %v", stats.SampleErrors(3))
	}

	first := records[0]
	if first.Reference == nil || first.Reference.String() != "CSH564980448" {
		t.Errorf("first reference = %v, want CSH564980448", first.Reference)
	}
	if first.Payee != "6505166670" {
		t.Errorf("first payee = %q, want 6505166670", first.Payee)
	}

	second := records[1]
	if second.Payee != "J VAN WYK" {
		t.Errorf("second payee = %q, want J VAN WYK", second.Payee)
	}
	if !second.Amount.Equal(decimal.RequireFromString("-80.5")) {
		t.Errorf("second amount = %s, want -80.5", second.Amount)
	}
}

func TestStatementParserEmptyFile(t *testing.T) {
	path := writeTempCSV(t, "empty.csv", "")

	parser, err := NewStatementParser(nil)
	if err != nil {
		t.Fatalf("NewStatementParser: %v", err)
	}

	if _, _, err := parser.ParseStatement(context.Background(), path); err == nil {
		t.Error("empty file should fail the parse")
	}
}

func TestAutoDetectStatementConfig(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		wantBank string
	}{
		{
			name:     "capitec layout",
			headers:  []string{"Transaction Date", "Money In", "Description"},
			wantBank: "Capitec",
		},
		{
			name:     "nedbank layout",
			headers:  []string{"Date", "Amount", "Narration"},
			wantBank: "Nedbank",
		},
		{
			name:     "unknown falls back to standard",
			headers:  []string{"When", "How Much"},
			wantBank: "Standard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := AutoDetectStatementConfig(tt.headers)
			if config.BankName != tt.wantBank {
				t.Errorf("detected %s, want %s", config.BankName, tt.wantBank)
			}
		})
	}
}

func TestGetStatementConfig(t *testing.T) {
	if config := GetStatementConfig("fnb"); config == nil || config.BankName != "FNB" {
		t.Error("expected FNB config for 'fnb'")
	}
	if config := GetStatementConfig("unknown-bank"); config != nil {
		t.Error("expected nil for unknown bank name")
	}
}

func TestParserConfigValidation(t *testing.T) {
	ledger := DefaultLedgerParserConfig()
	ledger.DateColumn = ""
	if err := ledger.Validate(); err == nil {
		t.Error("ledger config without date column should be invalid")
	}

	ledger = DefaultLedgerParserConfig()
	ledger.AmountColumn = ""
	ledger.DebitColumn = ""
	if err := ledger.Validate(); err == nil {
		t.Error("ledger config without amount or debit/credit columns should be invalid")
	}

	statement := DefaultStatementParserConfig()
	statement.AmountColumn = ""
	if err := statement.Validate(); err == nil {
		t.Error("statement config without amount column should be invalid")
	}

	if _, err := NewLedgerParser(&LedgerParserConfig{}); err == nil {
		t.Error("NewLedgerParser should reject an empty configuration")
	}
}

func TestLedgerFixtureFile(t *testing.T) {
	parser, err := NewLedgerParser(nil)
	if err != nil {
		t.Fatalf("NewLedgerParser returned error: %v", err)
	}

	records, stats, err := parser.ParseLedger(context.Background(), filepath.Join("testdata", "ledger_sample.csv"))
	if err != nil {
		t.Fatalf("ParseLedger returned error: %v", err)
	}

	if stats.RecordsParsed != 8 {
		t.Fatalf("expected 8 records, got %d", stats.RecordsParsed)
	}

	if !records[0].Amount.Equal(decimal.NewFromFloat(1234.56)) {
		t.Errorf("row 0: expected 1234.56, got %s", records[0].Amount)
	}
	if records[0].Reference == nil || records[0].Reference.String() != "CSH891089488" {
		t.Errorf("row 0: expected reference CSH891089488, got %v", records[0].Reference)
	}
	if !records[1].Amount.Equal(decimal.NewFromFloat(-500.00)) {
		t.Errorf("row 1: accounting negative not applied, got %s", records[1].Amount)
	}
	if records[2].Payee != "Mandla Zulu" {
		t.Errorf("row 2: expected payee Mandla Zulu, got %q", records[2].Payee)
	}
	if !records[5].Amount.Equal(decimal.NewFromFloat(-89.90)) {
		t.Errorf("row 5: trailing minus not applied, got %s", records[5].Amount)
	}
	if records[6].Payee != "0849667217" {
		t.Errorf("row 6: expected mobile payee, got %q", records[6].Payee)
	}
}

func TestStatementFixtureFile(t *testing.T) {
	parser, err := NewStatementParser(nil)
	if err != nil {
		t.Fatalf("NewStatementParser returned error: %v", err)
	}

	records, stats, err := parser.ParseStatement(context.Background(), filepath.Join("testdata", "statement_sample.csv"))
	if err != nil {
		t.Fatalf("ParseStatement returned error: %v", err)
	}

	if stats.RecordsParsed != 8 {
		t.Fatalf("expected 8 records, got %d", stats.RecordsParsed)
	}
	if stats.InvalidDates != 1 || stats.InvalidAmounts != 1 {
		t.Errorf("expected one invalid date and one invalid amount, got %d/%d",
			stats.InvalidDates, stats.InvalidAmounts)
	}

	if records[0].DateKey() != "2025-03-10" {
		t.Errorf("row 0: expected 2025-03-10, got %q", records[0].DateKey())
	}
	if records[1].Payee != "0834455667" {
		t.Errorf("row 1: expected reversal phone payee, got %q", records[1].Payee)
	}

	malformed := records[7]
	if malformed.DateValid {
		t.Error("row 7: expected invalid date flag")
	}
	if !malformed.Amount.IsZero() {
		t.Errorf("row 7: expected zero amount fallback, got %s", malformed.Amount)
	}
}
