package engine

import (
	"fmt"
	"math"

	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/domain"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/policy"
	"github.com/pantheosdev/Rent-Vs-Buy-Simulator-sub000/internal/purchase"
)

// Heatmap y-axis choices. The x-axis is always home appreciation.
const (
	HeatmapYRentInflation = "rent_inf"
	HeatmapYRenterReturn  = "renter_ret"
)

// HeatmapRequest describes a scenario sweep. Each cell re-runs the
// simulation with the base configuration plus the cell's axis values; all
// cells share one shock set so neighbouring cells differ only by their
// parameters, not by sampling noise.
type HeatmapRequest struct {
	Config   domain.Configuration
	Scenario domain.ScenarioParams

	// AppreciationPct holds the x-axis values (percent per year).
	AppreciationPct []float64
	// YValuesPct holds the y-axis values (percent per year); meaning set
	// by YAxis.
	YValuesPct []float64
	// YAxis is HeatmapYRentInflation or HeatmapYRenterReturn.
	YAxis string

	// NumSims overrides the per-cell simulation count; zero keeps the
	// configured value.
	NumSims int

	// CellMask, when non-nil, limits computation to true cells; the rest
	// come back NaN. Indexed [y][x].
	CellMask [][]bool

	// Progress, when set, is called once per finished cell.
	Progress func(done, total int)
}

// HeatmapResult holds the three surfaces, indexed [y][x].
type HeatmapResult struct {
	// WinPct is the buyer win percentage per cell; NaN for masked or
	// deterministic cells.
	WinPct [][]float64
	// Delta is the mean terminal net-worth difference (buyer minus renter).
	Delta [][]float64
	// PVDelta is Delta discounted back to month zero.
	PVDelta [][]float64
}

// Heatmap sweeps appreciation against rent inflation or renter return and
// returns the win, delta, and discounted-delta surfaces.
func (e *Engine) Heatmap(req HeatmapRequest) (*HeatmapResult, error) {
	if len(req.AppreciationPct) == 0 || len(req.YValuesPct) == 0 {
		return nil, fmt.Errorf("engine: heatmap needs both axes, got %dx%d", len(req.YValuesPct), len(req.AppreciationPct))
	}
	switch req.YAxis {
	case HeatmapYRentInflation, HeatmapYRenterReturn:
	default:
		return nil, fmt.Errorf("engine: unknown heatmap y-axis %q", req.YAxis)
	}
	if req.CellMask != nil && len(req.CellMask) != len(req.YValuesPct) {
		return nil, fmt.Errorf("engine: cell mask has %d rows, want %d", len(req.CellMask), len(req.YValuesPct))
	}

	cfg := req.Config
	cfg.NormalizeUnits()
	cfg, err := purchase.Enrich(cfg, false)
	if err != nil {
		return nil, err
	}
	if cfg.IsForeignBuyer {
		cfg.Close += policy.ForeignBuyerTaxAmount(cfg.Price, cfg.Province, cfg.AsOfOrNow())
	}
	if req.NumSims > 0 {
		n := req.NumSims
		req.Scenario.NumSimsOverride = &n
	}

	// One shock set across the whole grid: common random numbers keep the
	// surfaces smooth in the sweep dimensions.
	probe := newSimSpec(&cfg, &req.Scenario, nil, nil)
	var shocks *ShockSet
	if probe.isMC {
		shocks = NewShockSet(probe.months, max(1, probe.numSims), probe.corr, probe.seed)
	}

	nx, ny := len(req.AppreciationPct), len(req.YValuesPct)
	res := &HeatmapResult{
		WinPct:  nanGrid(ny, nx),
		Delta:   nanGrid(ny, nx),
		PVDelta: nanGrid(ny, nx),
	}

	total := ny * nx
	done := 0
	for yi, y := range req.YValuesPct {
		for xi, x := range req.AppreciationPct {
			if req.CellMask != nil && (xi >= len(req.CellMask[yi]) || !req.CellMask[yi][xi]) {
				done++
				continue
			}

			sc := req.Scenario
			sc.AppreciationPct = x
			var rentInfOverride *float64
			if req.YAxis == HeatmapYRenterReturn {
				sc.RenterReturnPct = y
			} else {
				yy := y
				rentInfOverride = &yy
			}

			s := newSimSpec(&cfg, &sc, rentInfOverride, nil)
			var d float64
			if s.isMC {
				mc := s.runMonteCarlo(true, shocks, nil)
				if mc.winPct != nil {
					res.WinPct[yi][xi] = *mc.winPct
				}
				d = meanDelta(mc.buyerFinals, mc.renterFinals)
			} else {
				r := s.walk(nil, nil)
				d = r.buyerFinal - r.renterFinal
			}
			res.Delta[yi][xi] = d
			if s.discMo > 0 {
				res.PVDelta[yi][xi] = d / math.Pow(1.0+s.discMo, float64(s.months))
			} else {
				res.PVDelta[yi][xi] = d
			}

			done++
			if req.Progress != nil {
				req.Progress(done, total)
			}
		}
	}
	e.log.Infof("heatmap complete: %dx%d cells, y-axis %s", ny, nx, req.YAxis)
	return res, nil
}

func nanGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		row := make([]float64, cols)
		for j := range row {
			row[j] = math.NaN()
		}
		g[i] = row
	}
	return g
}

func meanDelta(buyer, renter []float64) float64 {
	n := 0
	sum := 0.0
	for i := range buyer {
		if isFinite(buyer[i]) && isFinite(renter[i]) {
			sum += buyer[i] - renter[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
