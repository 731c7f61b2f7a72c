package extract

import (
	"sort"

	"github.com/ironsheep/source-extract/internal/logger"
	"github.com/ironsheep/source-extract/internal/skyimage"
	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Outcome is the result of processing one image: exactly one of Result and
// Err is set.
type Outcome struct {
	Path   string
	Result *FitResult
	Err    error
}

// Batch runs Extract over many images.
type Batch struct {
	Options Options
	Cache   *skyimage.ImageCache
	Log     logger.ILogger
}

// NewBatch creates a batch driver. A nil cache gets a private one; a nil
// log discards output.
func NewBatch(opts Options, cache *skyimage.ImageCache, log logger.ILogger) *Batch {
	if cache == nil {
		cache = skyimage.NewImageCache()
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	if opts.Log == nil {
		opts.Log = log
	}
	return &Batch{Options: opts, Cache: cache, Log: log}
}

// Run processes paths in sorted order and returns one Outcome per path
// attempted.
//
// An image that fails for any reason other than a ConfigurationError is
// logged and skipped. A ConfigurationError stops the batch: the outcomes so
// far are returned together with the error.
func (b *Batch) Run(paths []string) ([]Outcome, error) {
	if err := b.Options.Validate(); err != nil {
		return nil, err
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	outcomes := make([]Outcome, 0, len(sorted))
	for _, path := range sorted {
		res, err := b.one(path)
		if srcerr.IsConfiguration(err) {
			return outcomes, err
		}
		if err != nil {
			b.Log.Warnf("skipping %s: %v", path, err)
		} else {
			b.Log.Infof("%s: peak=%.5f rms=%.5f gauss_peak=%.5f integ=%.5f",
				path, res.Peak, res.RMS, res.GaussPeak, res.GaussIntegrated)
		}
		outcomes = append(outcomes, Outcome{Path: path, Result: res, Err: err})
	}
	return outcomes, nil
}

func (b *Batch) one(path string) (*FitResult, error) {
	defer b.Cache.Evict(path)

	img, err := b.Cache.Load(path)
	if err != nil {
		return nil, err
	}
	b.Log.Debugf("%s: %s", path, img.Header)
	return Extract(img, b.Options)
}

// Successes returns the results of the successful outcomes, in order.
func Successes(outcomes []Outcome) []*FitResult {
	var out []*FitResult
	for _, o := range outcomes {
		if o.Err == nil && o.Result != nil {
			out = append(out, o.Result)
		}
	}
	return out
}

// Failures returns the failed outcomes, in order.
func Failures(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
