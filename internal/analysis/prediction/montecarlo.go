package prediction

import (
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/dtiquant/internal/calculate"
	"github.com/Alias1177/dtiquant/internal/model"
	"github.com/Alias1177/dtiquant/internal/trading/risk"
)

const (
	// simulationChunks is fixed so results only depend on the seed, not on the worker count
	simulationChunks = 8
	histogramBuckets = 20
)

type chunkResult struct {
	terminal  []float64
	drawdowns []float64
	pathSums  []float64
}

// monteCarlo simulates price paths with normally distributed daily returns
func (e *Engine) monteCarlo(closes []float64) (model.MonteCarloForecast, risk.Simulation) {
	current := closes[len(closes)-1]
	returns := calculate.Returns(closes)
	mean := calculate.Average(returns)
	sd := calculate.StdDev(returns, mean)

	horizon, paths := e.opts.Horizon, e.opts.Paths
	seeds := e.chunkSeeds(simulationChunks)
	chunks := make([]chunkResult, simulationChunks)

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for k := 0; k < simulationChunks; k++ {
		k := k
		lo := k * paths / simulationChunks
		hi := (k + 1) * paths / simulationChunks
		g.Go(func() error {
			chunks[k] = simulateChunk(rand.New(rand.NewSource(seeds[k])), current, mean, sd, horizon, hi-lo)
			return nil
		})
	}
	_ = g.Wait()

	terminal := make([]float64, 0, paths)
	drawdowns := make([]float64, 0, paths)
	averagePath := make([]float64, horizon)
	for _, c := range chunks {
		terminal = append(terminal, c.terminal...)
		drawdowns = append(drawdowns, c.drawdowns...)
		for d, sum := range c.pathSums {
			averagePath[d] += sum
		}
	}
	for d := range averagePath {
		averagePath[d] /= float64(paths)
	}
	sort.Float64s(terminal)

	profitable := sort.Search(len(terminal), func(i int) bool { return terminal[i] > current })

	pct := model.Percentiles{
		P5:  calculate.Percentile(terminal, 5),
		P25: calculate.Percentile(terminal, 25),
		P50: calculate.Percentile(terminal, 50),
		P75: calculate.Percentile(terminal, 75),
		P95: calculate.Percentile(terminal, 95),
	}

	forecast := model.MonteCarloForecast{
		Paths:               paths,
		Horizon:             horizon,
		DailyMean:           mean,
		DailyStdDev:         sd,
		Percentiles:         pct,
		AveragePath:         averagePath,
		ExpectedReturn:      (pct.P50 - current) / current * 100,
		ValueAtRisk95:       (current - pct.P5) / current * 100,
		ProbabilityOfProfit: float64(len(terminal)-profitable) / float64(len(terminal)) * 100,
		Histogram:           histogram(terminal, histogramBuckets),
	}

	sim := risk.Simulation{
		CurrentPrice:  current,
		Horizon:       horizon,
		Terminal:      terminal,
		PathDrawdowns: drawdowns,
	}
	return forecast, sim
}

func simulateChunk(rng *rand.Rand, start, mean, sd float64, horizon, paths int) chunkResult {
	res := chunkResult{
		terminal:  make([]float64, paths),
		drawdowns: make([]float64, paths),
		pathSums:  make([]float64, horizon),
	}

	path := make([]float64, horizon)
	for p := 0; p < paths; p++ {
		price := start
		for d := 0; d < horizon; d++ {
			price = math.Max(price*(1+boxMuller(rng, mean, sd)), 0)
			path[d] = price
			res.pathSums[d] += price
		}
		res.terminal[p] = price
		res.drawdowns[p] = risk.PathDrawdown(start, path)
	}
	return res
}

// boxMuller draws one sample of N(mean, sd)
func boxMuller(rng *rand.Rand, mean, sd float64) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + sd*z
}

// histogram splits the sorted values into equal-width buckets.
// A zero-width range yields a single bucket holding everything.
func histogram(sorted []float64, buckets int) []model.HistogramBucket {
	if len(sorted) == 0 || buckets < 1 {
		return nil
	}

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		return []model.HistogramBucket{{Lower: lo, Upper: hi, Count: len(sorted)}}
	}

	width := (hi - lo) / float64(buckets)
	out := make([]model.HistogramBucket, buckets)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range sorted {
		idx := int((v - lo) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		out[idx].Count++
	}
	return out
}
