package skyimage

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/astrogo/fitsio"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// createTestCube writes a 4-axis FITS cube whose pixel value encodes its
// position, and returns its path.
func createTestCube(t *testing.T, freqFirst bool, beam *Beam, table []BeamRow) (string, *Image) {
	t.Helper()

	h := newTestHeader(freqFirst)
	h.Beam = beam
	h.BeamTable = table
	h.BUnit = "Jy/beam"

	n := 1
	for _, a := range h.Axes {
		n *= a.Length
	}
	img := &Image{Header: h, Data: make([]float64, n)}
	for i := range img.Data {
		img.Data[i] = float64(i)
	}

	path := filepath.Join(t.TempDir(), "cube.fits")
	if err := WriteFile(path, img, false); err != nil {
		t.Fatalf("failed to write FITS cube: %v", err)
	}
	return path, img
}

func TestReadFile_RoundTrip(t *testing.T) {
	beam := &Beam{Major: 0.02, Minor: 0.01, PA: 45}
	path, want := createTestCube(t, true, beam, nil)

	img, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(img.Header.Axes) != 4 {
		t.Fatalf("axes: got %d, want 4", len(img.Header.Axes))
	}
	for i, a := range img.Header.Axes {
		w := want.Header.Axes[i]
		if a.Type != w.Type || a.Length != w.Length || a.RefValue != w.RefValue || a.Increment != w.Increment {
			t.Errorf("axis %d: got %+v, want %+v", i+1, a, w)
		}
		if !a.HasRefPixel || a.RefPixel != w.RefPixel {
			t.Errorf("axis %d CRPIX: got %v/%f, want %f", i+1, a.HasRefPixel, a.RefPixel, w.RefPixel)
		}
	}
	if img.Header.Beam == nil || *img.Header.Beam != *beam {
		t.Errorf("beam: got %+v, want %+v", img.Header.Beam, beam)
	}
	if img.Header.BUnit != "Jy/beam" {
		t.Errorf("BUNIT: got %q", img.Header.BUnit)
	}
	if _, ok := img.Header.Extra["BMAJ"]; !ok {
		t.Error("Extra should carry every header card")
	}

	if len(img.Data) != len(want.Data) {
		t.Fatalf("data length: got %d, want %d", len(img.Data), len(want.Data))
	}
	for i := range img.Data {
		if img.Data[i] != want.Data[i] {
			t.Fatalf("data[%d]: got %f, want %f", i, img.Data[i], want.Data[i])
		}
	}
}

func TestReadFile_ScaledIntegers(t *testing.T) {
	h := newTestHeader(true)
	dims := make([]int, len(h.Axes))
	n := 1
	for i, a := range h.Axes {
		dims[i] = a.Length
		n *= a.Length
	}
	raw := make([]int16, n)
	for i := range raw {
		raw[i] = int16(i - n/2)
	}

	path := filepath.Join(t.TempDir(), "scaled.fits")
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := fitsio.Create(w)
	if err != nil {
		t.Fatal(err)
	}
	im := fitsio.NewImage(16, dims)
	cards := append(headerCards(h), fitsio.Card{Name: "BSCALE", Value: 0.5}, fitsio.Card{Name: "BZERO", Value: 2.0})
	if err := im.Header().Append(cards...); err != nil {
		t.Fatal(err)
	}
	if err := im.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := f.Write(im); err != nil {
		t.Fatal(err)
	}
	im.Close()
	f.Close()
	w.Close()

	img, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(img.Data) != n {
		t.Fatalf("data length: got %d, want %d", len(img.Data), n)
	}
	for i, v := range raw {
		if want := float64(v)*0.5 + 2; img.Data[i] != want {
			t.Fatalf("data[%d]: got %f, want %f", i, img.Data[i], want)
		}
	}
}

func TestReadFile_BeamTable(t *testing.T) {
	table := []BeamRow{
		{Beam: Beam{Major: 36.0 / 3600, Minor: 18.0 / 3600, PA: 12}, Chan: 0, Pol: 0},
		{Beam: Beam{Major: 72.0 / 3600, Minor: 36.0 / 3600, PA: -8}, Chan: 0, Pol: 1},
	}
	path, _ := createTestCube(t, false, nil, table)

	img, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if img.Header.Beam != nil {
		t.Errorf("primary beam should be absent, got %+v", img.Header.Beam)
	}
	if len(img.Header.BeamTable) != 2 {
		t.Fatalf("beam table rows: got %d, want 2", len(img.Header.BeamTable))
	}

	b, err := img.Header.BeamAt(1)
	if err != nil {
		t.Fatalf("BeamAt failed: %v", err)
	}
	if diff := b.Major - 0.02; diff > 1e-7 || diff < -1e-7 {
		t.Errorf("BMAJ: got %g deg, want 0.02", b.Major)
	}
	if b.PA != -8 {
		t.Errorf("BPA: got %g, want -8", b.PA)
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.fits")
	if err := os.WriteFile(garbage, []byte("not a fits file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.fits")},
		{"not fits", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFile(tt.path)
			if !srcerr.IsData(err) {
				t.Errorf("expected DataError, got %v", err)
			}
		})
	}
}

func TestWriteFile_NoClobber(t *testing.T) {
	path, img := createTestCube(t, true, nil, nil)
	if err := WriteFile(path, img, false); err == nil {
		t.Error("expected error writing over an existing file")
	}
	if err := WriteFile(path, img, true); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}
}

func TestImagePlane(t *testing.T) {
	for _, freqFirst := range []bool{true, false} {
		h := newTestHeader(freqFirst)
		n := 8 * 6 * 2
		img := &Image{Header: h, Data: make([]float64, n)}
		for i := range img.Data {
			img.Data[i] = float64(i)
		}

		p, err := img.Plane(0, 1)
		if err != nil {
			t.Fatalf("Plane failed: %v", err)
		}
		if p.Rows != 6 || p.Cols != 8 {
			t.Fatalf("shape: got %dx%d", p.Rows, p.Cols)
		}
		// stokes index 1 is the second 48-pixel plane whichever axis comes first
		if p.At(0, 0) != 48 || p.At(5, 7) != 95 {
			t.Errorf("freqFirst=%v: got %f..%f, want 48..95", freqFirst, p.At(0, 0), p.At(5, 7))
		}

		if _, err := img.Plane(0, 2); !srcerr.IsData(err) {
			t.Errorf("out-of-range stokes index: expected DataError, got %v", err)
		}
	}
}

func TestPlaneExtrema(t *testing.T) {
	p := &Plane{Rows: 1, Cols: 4, Data: []float64{3, math.NaN(), -2, 7}}
	lo, hi := p.Extrema()
	if lo != -2 || hi != 7 {
		t.Errorf("got (%f,%f), want (-2,7)", lo, hi)
	}
}

func TestImageCache(t *testing.T) {
	path, _ := createTestCube(t, true, nil, nil)
	cache := NewImageCache()

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load should return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}

	cache.Evict(path)
	if cache.Len() != 0 {
		t.Errorf("Len after Evict: got %d, want 0", cache.Len())
	}

	if _, err := cache.Load(path); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	path, _ := createTestCube(t, true, nil, nil)
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadHeaderInfo(t *testing.T) {
	path, _ := createTestCube(t, true, &Beam{Major: 0.02, Minor: 0.01}, nil)
	cache := NewImageCache()

	info, err := LoadHeaderInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadHeaderInfo failed: %v", err)
	}
	if info.FrequencyHz != 150e6 {
		t.Errorf("FrequencyHz: got %g", info.FrequencyHz)
	}
	if len(info.Polarizations) != 2 || info.Polarizations[1] != 2 {
		t.Errorf("Polarizations: got %v", info.Polarizations)
	}
	if info.Beam == nil || info.Beam.Major != 0.02 {
		t.Errorf("Beam: got %+v", info.Beam)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
}
