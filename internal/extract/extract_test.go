package extract

import (
	"testing"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantCode    string
		wantNil     bool
	}{
		{
			name:        "CSH code with nine digits",
			description: "Ref CSH891089488 - (Jenet 6452843846)",
			wantCode:    "CSH891089488",
		},
		{
			name:        "RJ code with six digits",
			description: "Payment RJ123456 received",
			wantCode:    "RJ123456",
		},
		{
			name:        "TX code lowercase",
			description: "tx9876543 settlement",
			wantCode:    "TX9876543",
		},
		{
			name:        "code with separator between prefix and digits",
			description: "transfer ZVC 123456789 done",
			wantCode:    "ZVC123456789",
		},
		{
			name:        "CSH with too few digits is skipped",
			description: "Ref CSH12345 pending",
			wantNil:     true,
		},
		{
			name:        "RJ with too few digits is skipped",
			description: "RJ12345 short",
			wantNil:     true,
		},
		{
			name:        "first valid code wins over later ones",
			description: "CSH12345 then CSH111222333 and ECO999888777",
			wantCode:    "CSH111222333",
		},
		{
			name:        "reversal keeps the code",
			description: "Reversal: CSH564980448: 6505166670",
			wantCode:    "CSH564980448",
		},
		{
			name:        "no code at all",
			description: "cash deposit branch 42",
			wantNil:     true,
		},
		{
			name:        "INN code",
			description: "INN456789123 invoice",
			wantCode:    "INN456789123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := ExtractReference(tt.description)
			if tt.wantNil {
				if code != nil {
					t.Errorf("ExtractReference(%q) = %v, want nil", tt.description, code)
				}
				return
			}
			if code == nil {
				t.Fatalf("ExtractReference(%q) = nil, want %s", tt.description, tt.wantCode)
			}
			if code.String() != tt.wantCode {
				t.Errorf("ExtractReference(%q) = %s, want %s", tt.description, code.String(), tt.wantCode)
			}
		})
	}
}

func TestExtractPayee(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "parenthesized name with trailing phone",
			description: "Ref CSH891089488 - (Jenet 6452843846)",
			want:        "Jenet",
		},
		{
			name:        "reversal phone is the payee",
			description: "Reversal: CSH564980448: 6505166670",
			want:        "6505166670",
		},
		{
			name:        "standalone mobile number",
			description: "ADT CASH DEPO02113002 0849667217",
			want:        "0849667217",
		},
		{
			name:        "leading phone followed by name",
			description: "0821234567 Sipho Dlamini",
			want:        "Sipho Dlamini",
		},
		{
			name:        "dot dash name",
			description: "CASH ACCEPTOR DEPOSIT FO. - Thembi Nkosi",
			want:        "Thembi Nkosi",
		},
		{
			name:        "dash separated name",
			description: "IMMEDIATE TRF CREDIT SETTLEMENT - Mandla Zulu",
			want:        "Mandla Zulu",
		},
		{
			name:        "name directly after code",
			description: "PAYMENT RECEIVED CSH111222333 - Lerato Mokoena",
			want:        "Lerato Mokoena",
		},
		{
			name:        "bank prefix",
			description: "TRANSFER FROM CAPITEC J VAN WYK",
			want:        "J VAN WYK",
		},
		{
			name:        "short description kept verbatim",
			description: "BRANCH DEPOSIT",
			want:        "BRANCH DEPOSIT",
		},
		{
			name:        "proper name tokens at the end",
			description: "electronic settlement instruction for account holder Naledi Khumalo",
			want:        "Naledi Khumalo",
		},
		{
			name:        "parenthesized reference label is skipped",
			description: "settlement of outstanding invoice balance (#Ref CSH891089488) - Peter Smith",
			want:        "Peter Smith",
		},
		{
			name:        "concatenated phone stripped from name",
			description: "INSTANT PAYMENT RECEIVED HERE - Anna0725556666",
			want:        "Anna",
		},
		{
			name:        "phone after slash stripped",
			description: "ELECTRONIC BANK TRANSFER IN - Bongani / 0761112222",
			want:        "Bongani",
		},
		{
			name:        "nothing usable",
			description: "9921 344 55 xx yy zz qq ww ee rr tt",
			want:        PayeeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPayee(tt.description); got != tt.want {
				t.Errorf("ExtractPayee(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	code, payee := Extract("Ref CSH891089488 - (Jenet 6452843846)")
	if code == nil || code.String() != "CSH891089488" {
		t.Errorf("Extract code = %v, want CSH891089488", code)
	}
	if payee != "Jenet" {
		t.Errorf("Extract payee = %q, want Jenet", payee)
	}

	code, payee = Extract("Reversal: CSH564980448: 6505166670")
	if code == nil || code.String() != "CSH564980448" {
		t.Errorf("Extract code = %v, want CSH564980448", code)
	}
	if payee != "6505166670" {
		t.Errorf("Extract payee = %q, want 6505166670", payee)
	}
}
