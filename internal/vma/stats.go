package vma

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Key selects the component returned by a summary.
type Key string

const (
	KeyMean Key = "mean"
	KeyHigh Key = "high"
	KeyLow  Key = "low"
	KeyAll  Key = "all"
)

// ParseKey validates a component name. The empty string means KeyAll.
func ParseKey(s string) (Key, error) {
	switch k := Key(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KeyAll, nil
	case KeyMean, KeyHigh, KeyLow, KeyAll:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (use mean, high, low or all)", ErrInvalidKey, s)
	}
}

// Filter restricts a summary to one regime and/or region. Empty fields match all.
type Filter struct {
	Regime string
	Region string
}

func (f Filter) matches(r Record) bool {
	if f.Regime != "" && r.Regime != f.Regime {
		return false
	}
	return RegionMatches(f.Region, r.Region)
}

// Params are the numeric settings of the statistics engine.
type Params struct {
	LowSD          float64
	HighSD         float64
	Discard        float64
	StatCorrection bool
	UseWeight      bool
}

// Result is the (mean, high, low) triple for one query.
type Result struct {
	Mean     float64
	High     float64
	Low      float64
	SD       float64
	N        int // points used after rejection
	Rejected int // points dropped as outliers
}

// Component returns the value for k; KeyAll returns the mean.
func (r Result) Component(k Key) float64 {
	switch k {
	case KeyHigh:
		return r.High
	case KeyLow:
		return r.Low
	default:
		return r.Mean
	}
}

func nanResult() Result {
	nan := math.NaN()
	return Result{Mean: nan, High: nan, Low: nan, SD: nan}
}

// minRejectionSize is the smallest sample outlier rejection will leave behind.
const minRejectionSize = 2

// summarize computes the triple over the filtered records.
func summarize(recs []Record, f Filter, p Params) Result {
	var (
		vals, weights []float64
		totalWeight   float64
		nonZero       int
	)
	for _, r := range recs {
		if !f.matches(r) {
			continue
		}
		// Excluded rows still count toward Σw and M.
		totalWeight += r.Weight
		if r.Weight != 0 {
			nonZero++
		}
		if r.Excluded {
			continue
		}
		vals = append(vals, r.Value)
		weights = append(weights, r.Weight)
	}
	if len(vals) == 0 {
		return nanResult()
	}

	var res Result
	if p.UseWeight {
		if totalWeight == 0 {
			return nanResult()
		}
		res.Mean, res.SD = weightedMeanStd(vals, weights, totalWeight, nonZero)
		res.N = len(vals)
	} else {
		kept, rejected := RejectOutliers(vals, p.Discard, p.StatCorrection)
		res.Mean, res.SD = meanStd(kept)
		res.N = len(kept)
		res.Rejected = rejected
	}
	if math.IsInf(res.Mean, 0) || math.IsNaN(res.Mean) {
		res.SD = math.NaN()
	}
	res.High = res.Mean + p.HighSD*res.SD
	res.Low = res.Mean - p.LowSD*res.SD
	return res
}

// meanStd returns the mean and sample standard deviation; one point has sd 0.
func meanStd(vals []float64) (float64, float64) {
	switch len(vals) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}

// weightedMeanStd follows the spreadsheet formula: the variance is normalized by
// ((M-1)/M)·Σw where M counts non-zero weights and Σw includes excluded rows.
func weightedMeanStd(vals, weights []float64, totalWeight float64, nonZero int) (float64, float64) {
	var sum float64
	for i, x := range vals {
		sum += weights[i] * x
	}
	mean := sum / totalWeight
	if len(vals) < 2 || nonZero < 2 {
		return mean, 0
	}
	var ss float64
	for i, x := range vals {
		d := x - mean
		ss += weights[i] * d * d
	}
	m := float64(nonZero)
	return mean, math.Sqrt(ss / ((m - 1) / m * totalWeight))
}

// RejectOutliers drops extreme points and returns the kept values and the number
// rejected. Each round tests only the point farthest from the mean.
//
// With correction the test repeats on the reduced sample until nothing exceeds
// discard·s·c(n), where c(n) is the Student-t to normal critical-value ratio; the
// factor grows as n shrinks so small samples need larger deviations. Without
// correction the farthest point is tested once against discard·s. A discard
// multiplier of zero or less disables rejection.
func RejectOutliers(vals []float64, discard float64, correction bool) ([]float64, int) {
	kept := append([]float64(nil), vals...)
	if !(discard > 0) {
		return kept, 0
	}
	rejected := 0
	for len(kept) > minRejectionSize {
		mean, sd := meanStd(kept)
		if sd == 0 || math.IsNaN(sd) || math.IsInf(mean, 0) {
			break
		}
		idx, dev := mostDeviant(kept, mean)
		threshold := discard * sd
		if correction {
			threshold *= smallSampleFactor(len(kept))
		}
		if !(dev > threshold) {
			break
		}
		kept = append(kept[:idx], kept[idx+1:]...)
		rejected++
		if !correction {
			break
		}
	}
	return kept, rejected
}

func mostDeviant(vals []float64, mean float64) (int, float64) {
	idx, dev := 0, -1.0
	for i, x := range vals {
		if d := math.Abs(x - mean); d > dev {
			idx, dev = i, d
		}
	}
	return idx, dev
}

// smallSampleFactor is t(0.975, n-1) / z(0.975).
func smallSampleFactor(n int) float64 {
	if n < 2 {
		return math.Inf(1)
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(0.975)
	return t / distuv.UnitNormal.Quantile(0.975)
}
