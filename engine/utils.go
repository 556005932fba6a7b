package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/boypt/folderwatch/storage"
	"github.com/c2h5oh/datasize"
	"golang.org/x/time/rate"
)

//listLimiter turns ListRate into a throttle for List calls, nil means unthrottled
func listLimiter(rstr string) (*rate.Limiter, error) {
	var perSec float64
	rstr = strings.ToLower(strings.TrimSpace(rstr))
	switch rstr {
	case "low":
		perSec = 2
	case "medium":
		perSec = 10
	case "high":
		perSec = 50
	case "unlimited", "0", "":
		return nil, nil
	default:
		v, err := strconv.ParseFloat(strings.TrimSuffix(rstr, "/s"), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid list rate %q", rstr)
		}
		if v == 0 {
			return nil, nil
		}
		perSec = v
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), burst), nil
}

func maxSnapshotSize(s string) (datasize.ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return storage.DefaultMaxSize, nil
	}
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid snapshot size %q: %w", s, err)
	}
	return v, nil
}
