package engine

import (
	"math"
	"math/rand/v2"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
)

// ShockSet holds pre-combined correlated shocks shared across Monte Carlo
// runs (common random numbers), indexed [month][sim]. Sharing one set across
// a parameter grid keeps neighboring cells comparable.
type ShockSet struct {
	Months  int
	NumSims int
	Stock   [][]float64
	House   [][]float64
}

// NewShockSet draws months x numSims correlated shock pairs. corr is the
// stock/house correlation, clamped to (-1, 1); a nil seed draws a random
// stream.
func NewShockSet(months, numSims int, corr float64, seed *int64) *ShockSet {
	rng := newRand(seed, 0)
	a, b, sign := corrCoeffs(corr)

	set := &ShockSet{
		Months:  months,
		NumSims: numSims,
		Stock:   make([][]float64, months),
		House:   make([][]float64, months),
	}
	for m := 0; m < months; m++ {
		set.Stock[m] = make([]float64, numSims)
		set.House[m] = make([]float64, numSims)
		for i := 0; i < numSims; i++ {
			zSys := rng.NormFloat64()
			zStock := rng.NormFloat64()
			zHouse := rng.NormFloat64()
			set.Stock[m][i] = a*zSys + b*zStock
			set.House[m][i] = a*sign*zSys + b*zHouse
		}
	}
	return set
}

// stream returns the shock stream for one simulation index.
func (s *ShockSet) stream(sim int) shockStream {
	return func(month int) (float64, float64) {
		return s.Stock[month-1][sim], s.House[month-1][sim]
	}
}

func corrCoeffs(corr float64) (a, b, sign float64) {
	rho := corr
	if rho > 0.999999 {
		rho = 0.999999
	}
	if rho < -0.999999 {
		rho = -0.999999
	}
	abs := math.Abs(rho)
	sign = 1.0
	if rho < 0 {
		sign = -1.0
	}
	return math.Sqrt(abs), math.Sqrt(1.0 - abs), sign
}

// newRand builds a PCG stream. With a seed the stream is reproducible and
// offset distinguishes per-simulation substreams; without one the draws are
// random.
func newRand(seed *int64, offset int) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := uint64(*seed) + uint64(offset)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// drawStream draws fresh correlated shocks per month from rng.
func drawStream(rng *rand.Rand, corr float64) shockStream {
	a, b, sign := corrCoeffs(corr)
	return func(int) (float64, float64) {
		zSys := rng.NormFloat64()
		zStock := rng.NormFloat64()
		zHouse := rng.NormFloat64()
		return a*zSys + b*zStock, a*sign*zSys + b*zHouse
	}
}

// mcOutput is the aggregate of one Monte Carlo batch.
type mcOutput struct {
	rows        []domain.MonthRow
	bands       *domain.Bands
	liquidation *domain.LiquidationSummary
	winPct      *float64
	degenerate  bool

	buyerFinals  []float64
	renterFinals []float64
}

// runMonteCarlo executes numSims paths of s and aggregates medians, means,
// and 5/95 bands per month. When summaryOnly is set only terminal statistics
// are kept. shocks, when non-nil, supplies common random numbers; otherwise
// each simulation draws its own stream (seed+i when seeded).
func (s *simSpec) runMonteCarlo(summaryOnly bool, shocks *ShockSet, progress func(done, total int)) *mcOutput {
	numSims := max(1, s.numSims)
	out := &mcOutput{
		degenerate:   s.retStdMo <= 0 && s.appStdMo <= 0,
		buyerFinals:  make([]float64, numSims),
		renterFinals: make([]float64, numSims),
	}

	var buyerLiqs, renterLiqs []float64
	if s.showLiquidation {
		buyerLiqs = make([]float64, numSims)
		renterLiqs = make([]float64, numSims)
	}

	// Random-dependent per-sim paths, only in full output mode.
	var buyerNW, renterNW, buyerUnrec [][]float64
	var propTax, maint, repair, buyPmt, deficit [][]float64
	var det *detSeries
	if !summaryOnly {
		alloc := func() [][]float64 { return make([][]float64, numSims) }
		buyerNW, renterNW, buyerUnrec = alloc(), alloc(), alloc()
		propTax, maint, repair, buyPmt, deficit = alloc(), alloc(), alloc(), alloc(), alloc()
	}

	progStep := max(1, numSims/100)
	for i := 0; i < numSims; i++ {
		var stream shockStream
		if s.retStdMo > 0 || s.appStdMo > 0 {
			if shocks != nil {
				stream = shocks.stream(i)
			} else {
				stream = drawStream(newRand(s.seed, i), s.corr)
			}
		}

		var sink *pathSink
		if !summaryOnly {
			sink = &pathSink{
				buyerNW:    make([]float64, s.months),
				renterNW:   make([]float64, s.months),
				buyerUnrec: make([]float64, s.months),
				propTax:    make([]float64, s.months),
				maint:      make([]float64, s.months),
				repair:     make([]float64, s.months),
				buyPmt:     make([]float64, s.months),
				deficit:    make([]float64, s.months),
			}
			if i == 0 {
				det = newDetSeries(s.months)
				sink.det = det
			}
		}

		r := s.walk(stream, sink)
		out.buyerFinals[i] = r.buyerFinal
		out.renterFinals[i] = r.renterFinal
		if s.showLiquidation {
			buyerLiqs[i] = r.buyerLiq
			renterLiqs[i] = r.renterLiq
		}
		if sink != nil {
			buyerNW[i], renterNW[i], buyerUnrec[i] = sink.buyerNW, sink.renterNW, sink.buyerUnrec
			propTax[i], maint[i], repair[i] = sink.propTax, sink.maint, sink.repair
			buyPmt[i], deficit[i] = sink.buyPmt, sink.deficit
		}

		if progress != nil && ((i+1)%progStep == 0 || i+1 == numSims) {
			progress(i+1, numSims)
		}
	}

	out.winPct = winPercent(out.buyerFinals, out.renterFinals)
	if s.showLiquidation {
		out.liquidation = summarizeLiquidation(buyerLiqs, renterLiqs)
	}
	if summaryOnly {
		return out
	}

	out.rows, out.bands = aggregatePaths(s, numSims, det,
		buyerNW, renterNW, buyerUnrec, propTax, maint, repair, buyPmt, deficit)

	// The liquidation medians also live on the horizon row, matching the
	// deterministic convention.
	if out.liquidation != nil && len(out.rows) > 0 {
		last := &out.rows[len(out.rows)-1]
		bm, rm := out.liquidation.BuyerMedian, out.liquidation.RenterMedian
		last.BuyerLiquidationNW = &bm
		last.RenterLiquidationNW = &rm
	}
	return out
}

// aggregatePaths folds per-sim paths into median rows plus mean and
// percentile bands.
func aggregatePaths(
	s *simSpec, numSims int, det *detSeries,
	buyerNW, renterNW, buyerUnrec, propTax, maint, repair, buyPmt, deficit [][]float64,
) ([]domain.MonthRow, *domain.Bands) {
	rows := make([]domain.MonthRow, s.months)
	bands := &domain.Bands{
		BuyerNWMean:     make([]float64, s.months),
		RenterNWMean:    make([]float64, s.months),
		BuyerNWLow:      make([]float64, s.months),
		BuyerNWHigh:     make([]float64, s.months),
		RenterNWLow:     make([]float64, s.months),
		RenterNWHigh:    make([]float64, s.months),
		BuyerUnrecMean:  make([]float64, s.months),
		RenterUnrecMean: make([]float64, s.months),
	}

	col := make([]float64, numSims)
	pick := func(paths [][]float64, m int) []float64 {
		for i := 0; i < numSims; i++ {
			col[i] = paths[i][m]
		}
		return col
	}

	for m := 0; m < s.months; m++ {
		row := domain.MonthRow{
			Month: m + 1,
			Year:  m/12 + 1,
		}

		c := pick(buyerNW, m)
		row.BuyerNetWorth = median(c)
		bands.BuyerNWMean[m] = mean(c)
		bands.BuyerNWLow[m] = percentile(c, 5)
		bands.BuyerNWHigh[m] = percentile(c, 95)

		c = pick(renterNW, m)
		row.RenterNetWorth = median(c)
		bands.RenterNWMean[m] = mean(c)
		bands.RenterNWLow[m] = percentile(c, 5)
		bands.RenterNWHigh[m] = percentile(c, 95)

		c = pick(buyerUnrec, m)
		row.BuyerUnrecoverable = median(c)
		bands.BuyerUnrecMean[m] = mean(c)

		row.PropertyTax = median(pick(propTax, m))
		row.Maintenance = median(pick(maint, m))
		row.Repairs = median(pick(repair, m))
		row.BuyPayment = median(pick(buyPmt, m))
		row.Deficit = median(pick(deficit, m))

		// Deterministic series are identical across paths.
		row.RenterUnrecoverable = det.renterUnrec[m]
		bands.RenterUnrecMean[m] = det.renterUnrec[m]
		row.Interest = det.interest[m]
		row.SpecialAssessment = det.special[m]
		row.CondoFees = det.condoFees[m]
		row.HomeInsurance = det.homeIns[m]
		row.Utilities = det.utilities[m]
		row.Rent = det.rent[m]
		row.RentInsurance = det.rentIns[m]
		row.RentUtilities = det.rentUtil[m]
		row.Moving = det.moving[m]
		row.RentPayment = det.rentPmt[m]
		row.RentCostRecurring = det.rentRecurring[m]
		// Budget cash-flow columns are path-dependent and not meaningful as
		// medians; they are only emitted for deterministic runs.

		rows[m] = row
	}
	return rows, bands
}

func summarizeLiquidation(buyer, renter []float64) *domain.LiquidationSummary {
	bf, rf := finitePairs(buyer, renter)
	if len(bf) == 0 {
		return nil
	}
	return &domain.LiquidationSummary{
		BuyerMedian:  median(bf),
		RenterMedian: median(rf),
		BuyerMean:    mean(bf),
		RenterMean:   mean(rf),
		BuyerLow:     percentile(bf, 5),
		BuyerHigh:    percentile(bf, 95),
		RenterLow:    percentile(rf, 5),
		RenterHigh:   percentile(rf, 95),
		WinPct:       winPercent(bf, rf),
	}
}
