package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		description string
		expectError bool
	}{
		{
			name:        "valid file",
			filePath:    validFile,
			description: "test file",
			expectError: false,
		},
		{
			name:        "empty path",
			filePath:    "",
			description: "test file",
			expectError: true,
		},
		{
			name:        "non-existent file",
			filePath:    "/non/existent/file.csv",
			description: "test file",
			expectError: true,
		},
		{
			name:        "directory instead of file",
			filePath:    tmpDir,
			description: "test file",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, tt.description)

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func setDefaultReconcileFlags(ledgerFile, statementFile string) {
	viper.Set("ledger-file", ledgerFile)
	viper.Set("statement-file", statementFile)
	viper.Set("bank", "")
	viper.Set("output-format", "console")
	viper.Set("output-file", "")
	viper.Set("date-tolerance", 1)
	viper.Set("amount-tolerance", 0.0)
	viper.Set("amount-tolerance-percent", 0.0)
	viper.Set("fuzzy-threshold", 85)
	viper.Set("fuzzy", true)
	viper.Set("split", true)
	viper.Set("max-split-components", 0)
}

func TestValidateReconcileFlags(t *testing.T) {
	tmpDir := t.TempDir()
	ledgerPath := filepath.Join(tmpDir, "ledger.csv")
	statementPath := filepath.Join(tmpDir, "statement.csv")

	if err := os.WriteFile(ledgerPath, []byte("Date,Amount,Description\n2025-03-15,100.00,Row\n"), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}
	if err := os.WriteFile(statementPath, []byte("Date,Amount,Description\n2025-03-15,100.00,Row\n"), 0644); err != nil {
		t.Fatalf("failed to create statement file: %v", err)
	}

	tests := []struct {
		name          string
		setupFlags    func()
		expectError   bool
		errorContains string
	}{
		{
			name: "valid flags",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
			},
			expectError: false,
		},
		{
			name: "missing ledger file",
			setupFlags: func() {
				setDefaultReconcileFlags("", statementPath)
			},
			expectError:   true,
			errorContains: "ledger-file is required",
		},
		{
			name: "missing statement file",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, "")
			},
			expectError:   true,
			errorContains: "statement-file is required",
		},
		{
			name: "invalid output format",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
				viper.Set("output-format", "xml")
			},
			expectError:   true,
			errorContains: "invalid output format",
		},
		{
			name: "negative date tolerance",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
				viper.Set("date-tolerance", -1)
			},
			expectError:   true,
			errorContains: "date tolerance",
		},
		{
			name: "amount tolerance percent out of range",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
				viper.Set("amount-tolerance-percent", 150.0)
			},
			expectError:   true,
			errorContains: "amount tolerance percentage",
		},
		{
			name: "fuzzy threshold out of range",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
				viper.Set("fuzzy-threshold", 101)
			},
			expectError:   true,
			errorContains: "fuzzy threshold",
		},
		{
			name: "missing output directory",
			setupFlags: func() {
				setDefaultReconcileFlags(ledgerPath, statementPath)
				viper.Set("output-file", "/nonexistent/dir/report.json")
			},
			expectError:   true,
			errorContains: "output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			tt.setupFlags()

			err := validateReconcileFlags(reconcileCmd, nil)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.errorContains)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunReconcileEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	ledgerPath := filepath.Join(tmpDir, "ledger.csv")
	statementPath := filepath.Join(tmpDir, "statement.csv")
	outputPath := filepath.Join(tmpDir, "report.json")

	ledgerCSV := "Date,Amount,Description\n2025-03-15,1200.00,Payment CSH891089488 Jenet\n"
	statementCSV := "Date,Amount,Description\n2025-03-15,1200.00,Deposit CSH891089488 Jenet\n"

	if err := os.WriteFile(ledgerPath, []byte(ledgerCSV), 0644); err != nil {
		t.Fatalf("failed to create ledger file: %v", err)
	}
	if err := os.WriteFile(statementPath, []byte(statementCSV), 0644); err != nil {
		t.Fatalf("failed to create statement file: %v", err)
	}

	viper.Reset()
	setDefaultReconcileFlags(ledgerPath, statementPath)
	viper.Set("output-format", "json")
	viper.Set("output-file", outputPath)

	if err := validateReconcileFlags(reconcileCmd, nil); err != nil {
		t.Fatalf("flag validation failed: %v", err)
	}
	reconcileCmd.SetContext(context.Background())
	if err := runReconcile(reconcileCmd, nil); err != nil {
		t.Fatalf("runReconcile returned error: %v", err)
	}

	content, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report file: %v", err)
	}
	if !strings.Contains(string(content), "\"matches\"") {
		t.Errorf("report missing matches section:\n%s", content)
	}
}
