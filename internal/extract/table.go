package extract

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// TableHeader is the comment line heading every results table.
const TableHeader = "# freq_MHz\tpeak_flux\tpeak_flux_err\tpeak_gauss_flux\tinteg_gauss_flux"

// WriteTable writes one tab-delimited row per result, preceded by
// TableHeader. Frequencies are written in MHz.
func WriteTable(w io.Writer, results []*FitResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, TableHeader)
	for _, r := range results {
		fmt.Fprintf(bw, "%8.5f\t%8.5f\t%8.5f\t%8.5f\t%8.5f\n",
			r.Frequency/1e6, r.Peak, r.PeakErr, r.GaussPeak, r.GaussIntegrated)
	}
	return errors.Wrap(bw.Flush(), "writing results table")
}

// SaveTable writes the table to path. An existing file is replaced only
// when overwrite is set; otherwise it is a ConfigurationError.
func SaveTable(path string, results []*FitResult, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return srcerr.Configf("file %s exists, not overwriting", path)
		}
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := WriteTable(f, results); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "closing %s", path)
}
