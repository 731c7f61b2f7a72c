// Package position resolves a named source to a sky coordinate.
//
// Positions live in side files named "<source>.loc" holding two
// whitespace-separated sexagesimal tokens:
//
//	13:31:08.29  +30:30:33.0
//
// The first token is right ascension in hours:minutes:seconds, the second is
// declination in degrees:arcminutes:arcseconds. Both are converted to decimal
// degrees.
package position

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/source-extract/internal/srcerr"
)

// Sky is a celestial position in decimal degrees.
type Sky struct {
	RA  float64 `json:"ra_deg"`
	Dec float64 `json:"dec_deg"`
}

// LocFile returns the side-file path for source inside dir.
func LocFile(dir, source string) string {
	return filepath.Join(dir, source+".loc")
}

// Load reads <dir>/<source>.loc. A missing file or malformed content is a
// ConfigurationError.
func Load(dir, source string) (*Sky, error) {
	if strings.TrimSpace(source) == "" {
		return nil, srcerr.Configf("a source name is required to locate its .loc file")
	}

	path := LocFile(dir, source)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, srcerr.WrapConfig(err, "cannot read source position file %s", path)
	}

	pos, err := Parse(string(b))
	if err != nil {
		return nil, srcerr.WrapConfig(err, "invalid source position file %s", path)
	}
	return pos, nil
}

// Parse converts "HH:MM:SS ±DD:MM:SS" text to a Sky position.
func Parse(text string) (*Sky, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return nil, srcerr.Configf("expected 2 coordinate tokens, found %d", len(fields))
	}

	ra, err := ParseRA(fields[0])
	if err != nil {
		return nil, err
	}
	dec, err := ParseDec(fields[1])
	if err != nil {
		return nil, err
	}
	return &Sky{RA: ra, Dec: dec}, nil
}

// ParseRA converts an "HH:MM:SS" right ascension to degrees.
func ParseRA(s string) (float64, error) {
	neg, h, m, sec, err := splitSexagesimal(s)
	if err != nil {
		return 0, err
	}
	if neg {
		return 0, srcerr.Configf("right ascension %q cannot be negative", s)
	}
	return (h + m/60 + sec/3600) * 15, nil
}

// ParseDec converts a "±DD:MM:SS" declination to degrees. The sign applies
// to all three components, so "-00:30:00" is -0.5.
func ParseDec(s string) (float64, error) {
	neg, d, m, sec, err := splitSexagesimal(s)
	if err != nil {
		return 0, err
	}
	v := d + m/60 + sec/3600
	if neg {
		v = -v
	}
	return v, nil
}

// splitSexagesimal returns the sign and the absolute values of the three
// colon-separated components.
func splitSexagesimal(s string) (neg bool, a, b, c float64, err error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return false, 0, 0, 0, srcerr.Configf("sexagesimal value %q must have 3 colon-separated parts", s)
	}

	vals := make([]float64, 3)
	for i, p := range parts {
		v, perr := strconv.ParseFloat(p, 64)
		if perr != nil {
			return false, 0, 0, 0, srcerr.WrapConfig(perr, "bad sexagesimal component %q", p)
		}
		if v < 0 {
			return false, 0, 0, 0, srcerr.Configf("sign must lead the value, found %q", p)
		}
		vals[i] = v
	}
	return neg, vals[0], vals[1], vals[2], nil
}
