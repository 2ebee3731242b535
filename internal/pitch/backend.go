package pitch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tunescribe/internal/media"
	"tunescribe/internal/services"
)

const (
	frameSize = 2048
	hopSize   = 256

	minFreqHz = 60.0
	maxFreqHz = 1600.0
)

// Backend estimates a fundamental frequency contour for a signal.
type Backend interface {
	Name() string
	Estimate(ctx context.Context, sig media.Signal) (Contour, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Backend{}
)

// Register makes a backend constructor available under name. Later
// registrations replace earlier ones.
func Register(name string, factory func() Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup resolves a registered backend by name.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pitch", "lookup",
			fmt.Sprintf("unknown pitch backend %q", name), nil)
	}
	return factory(), nil
}

func init() {
	Register("acf", func() Backend { return acfBackend{} })
	Register("nsdf", func() Backend { return nsdfBackend{} })
}

// Extract runs the configured backend with a single fallback attempt. If the
// primary backend fails and fallback names a different registered backend, it
// is tried once; its error, if any, is the one reported.
func Extract(ctx context.Context, sig media.Signal, backend, fallback string) (Contour, error) {
	primary, err := Lookup(backend)
	if err != nil {
		return Contour{}, err
	}

	contour, err := primary.Estimate(ctx, sig)
	if err == nil {
		return contour, nil
	}
	if fallback == "" || fallback == backend {
		return Contour{}, err
	}

	secondary, lookupErr := Lookup(fallback)
	if lookupErr != nil {
		return Contour{}, err
	}
	return secondary.Estimate(ctx, sig)
}

// frames yields frame offsets covering the signal at the fixed hop.
func frameOffsets(n int) []int {
	if n < frameSize {
		return nil
	}
	count := 1 + (n-frameSize)/hopSize
	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = i * hopSize
	}
	return offsets
}

func frameTimes(offsets []int, rate int) []float64 {
	times := make([]float64, len(offsets))
	for i, off := range offsets {
		times[i] = (float64(off) + frameSize/2) / float64(rate)
	}
	return times
}

func lagBounds(rate int) (minLag, maxLag int) {
	minLag = int(float64(rate) / maxFreqHz)
	if minLag < 2 {
		minLag = 2
	}
	maxLag = int(float64(rate) / minFreqHz)
	if maxLag > frameSize/2 {
		maxLag = frameSize / 2
	}
	return minLag, maxLag
}

func checkCancelled(ctx context.Context, i int) error {
	if i%64 != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// MedianFilter smooths voiced frequencies with a running median of the given
// odd window. Unvoiced frames are untouched and excluded from neighborhoods.
func MedianFilter(c Contour, window int) Contour {
	if window < 3 || window%2 == 0 {
		return c
	}

	out := cloneContour(c)
	half := window / 2
	buf := make([]float64, 0, window)
	for i := range c.FreqHz {
		if !c.Voiced[i] {
			continue
		}
		buf = buf[:0]
		for j := i - half; j <= i+half; j++ {
			if j < 0 || j >= len(c.FreqHz) || !c.Voiced[j] {
				continue
			}
			buf = append(buf, c.FreqHz[j])
		}
		if len(buf) == 0 {
			continue
		}
		sorted := append([]float64(nil), buf...)
		sort.Float64s(sorted)
		out.FreqHz[i] = sorted[len(sorted)/2]
	}
	return out
}

// LimitSteps damps single-frame frequency jumps. A voiced frame more than
// 10% away from the previous voiced frequency is pulled back by blending
// 90% of the previous value with 10% of its own.
func LimitSteps(c Contour) Contour {
	out := cloneContour(c)
	prev := 0.0
	for i := range out.FreqHz {
		if !out.Voiced[i] {
			continue
		}
		f := out.FreqHz[i]
		if prev > 0 {
			delta := f - prev
			if delta < 0 {
				delta = -delta
			}
			if delta > 0.1*prev {
				f = 0.9*prev + 0.1*f
				out.FreqHz[i] = f
			}
		}
		prev = f
	}
	return out
}

// Smooth applies the default smoothing pass: median filter then step limiter.
func Smooth(c Contour) Contour {
	return LimitSteps(MedianFilter(c, 5))
}

func cloneContour(c Contour) Contour {
	return Contour{
		Times:  append([]float64(nil), c.Times...),
		FreqHz: append([]float64(nil), c.FreqHz...),
		Voiced: append([]bool(nil), c.Voiced...),
	}
}
