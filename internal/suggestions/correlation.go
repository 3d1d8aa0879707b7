package suggestions

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"retentionloop/internal/params"
)

// pearson computes the Pearson correlation coefficient between xs and ys.
// Returns 0 when either series has zero variance.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func meanStdev(xs []float64) (mean, stdev float64) {
	n := len(xs)
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(n)
	var varSum float64
	for _, x := range xs {
		d := x - mean
		varSum += d * d
	}
	stdev = math.Sqrt(varSum / float64(n))
	return mean, stdev
}

// correlateAll computes one Correlation per numeric parameter field against
// score_total, each field computed concurrently via errgroup since every
// field's correlation is independent of the others.
func correlateAll(ctx context.Context, rows []Row) ([]Correlation, error) {
	names := params.FieldNames()
	out := make([]Correlation, len(names))

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = row.Metric.ScoreTotal
	}

	g, _ := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			xs := make([]float64, len(rows))
			for j := range rows {
				v, _ := params.Get(&rows[j].Params, name)
				xs[j] = v
			}
			mean, stdev := meanStdev(xs)
			out[i] = Correlation{
				Param: name,
				R:     pearson(xs, scores),
				Mean:  mean,
				Stdev: stdev,
				N:     len(rows),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func findCorrelation(cs []Correlation, name string) (Correlation, bool) {
	for _, c := range cs {
		if c.Param == name {
			return c, true
		}
	}
	return Correlation{}, false
}
