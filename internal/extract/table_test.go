package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

func TestWriteTable(t *testing.T) {
	results := []*FitResult{
		{Frequency: 150.5e6, Peak: 1.25, PeakErr: 0.4, GaussPeak: 1.2, GaussIntegrated: 1.5},
		{Frequency: 160e6, Peak: -0.000001, PeakErr: 0.01, GaussPeak: 0, GaussIntegrated: 0},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, results); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	want := TableHeader + "\n" +
		"150.50000\t 1.25000\t 0.40000\t 1.20000\t 1.50000\n" +
		"160.00000\t-0.00000\t 0.01000\t 0.00000\t 0.00000\n"
	if buf.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestWriteTable_NoRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, nil); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if buf.String() != TableHeader+"\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestSaveTable_OverwriteGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.spectrum.tab")
	first := []*FitResult{{Frequency: 100e6, Peak: 1}}
	second := []*FitResult{{Frequency: 200e6, Peak: 2}, {Frequency: 210e6, Peak: 3}}

	if err := SaveTable(path, first, false); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	err := SaveTable(path, second, false)
	if !srcerr.IsConfiguration(err) {
		t.Fatalf("second save without overwrite: expected ConfigurationError, got %v", err)
	}

	if err := SaveTable(path, second, true); err != nil {
		t.Fatalf("save with overwrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "200.00000") {
		t.Errorf("file not replaced:\n%s", data)
	}
}
