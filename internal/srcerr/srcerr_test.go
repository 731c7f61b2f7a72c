package srcerr

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantConfig bool
		wantData   bool
	}{
		{"config", Configf("missing --source"), true, false},
		{"data", Dataf("polarization %d not found", 5), false, true},
		{"wrapped config", WrapConfig(os.ErrNotExist, "reading %s", "x.loc"), true, false},
		{"wrapped data", WrapData(os.ErrClosed, "reading image"), false, true},
		{"data behind fmt wrap", fmt.Errorf("image a.fits: %w", Dataf("empty selection")), false, true},
		{"data behind pkg wrap", errors.Wrap(Dataf("degenerate beam"), "image b.fits"), false, true},
		{"plain", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfiguration(tt.err); got != tt.wantConfig {
				t.Errorf("IsConfiguration: got %v, want %v", got, tt.wantConfig)
			}
			if got := IsData(tt.err); got != tt.wantData {
				t.Errorf("IsData: got %v, want %v", got, tt.wantData)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if WrapConfig(nil, "x") != nil {
		t.Error("WrapConfig(nil) should be nil")
	}
	if WrapData(nil, "x") != nil {
		t.Error("WrapData(nil) should be nil")
	}
}

func TestMessages(t *testing.T) {
	err := WrapConfig(os.ErrNotExist, "source file %s", "3C286.loc")
	if !strings.Contains(err.Error(), "3C286.loc") {
		t.Errorf("message missing file name: %q", err.Error())
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("wrapped cause should be reachable with errors.Is")
	}

	err = Dataf("empty selection")
	if !strings.HasPrefix(err.Error(), "data error: ") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
