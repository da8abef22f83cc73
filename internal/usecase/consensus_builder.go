package usecase

import (
	"math"
	"sort"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
)

// Resolved-market cutoffs: a price this close to settlement leaves no edge.
const (
	resolvedHighPrice = 0.98
	resolvedLowPrice  = 0.02
)

// Trader scoring: profit saturates at $100k, efficiency at 10 cents of
// profit per dollar traded. Efficiency carries more weight so grinders
// outrank one-hit snipers.
const (
	scoreMinPnL           = 10_000.0
	scorePnLCap           = 100_000.0
	scoreEfficiencyCap    = 0.10
	scorePnLWeight        = 0.4
	scoreEfficiencyWeight = 0.6
)

// minPositionValue drops dust positions before consensus grouping.
const minPositionValue = 100.0

// ConsensusBuilder groups top-trader positions into raw consensus signals:
// one candidate per market+direction pair backed by enough distinct wallets.
type ConsensusBuilder struct {
	book          domrepo.PriceBook
	minConsensus  int
	minConviction float64
	maxSignals    int
}

// NewConsensusBuilder creates a builder. minConsensus is the minimum number
// of distinct supporting wallets, minConviction the minimum fraction of the
// cohort on the same side; maxSignals caps the output per cycle.
func NewConsensusBuilder(book domrepo.PriceBook, minConsensus int, minConviction float64, maxSignals int) *ConsensusBuilder {
	if minConsensus < 2 {
		minConsensus = 2
	}
	return &ConsensusBuilder{
		book:          book,
		minConsensus:  minConsensus,
		minConviction: minConviction,
		maxSignals:    maxSignals,
	}
}

// ScoreTraders ranks leaderboard records by capped profit and efficiency.
// Traders below the PnL floor are dropped. Highest score first.
func (b *ConsensusBuilder) ScoreTraders(records []models.TraderRecord) []models.TraderScore {
	scores := make([]models.TraderScore, 0, len(records))
	for _, r := range records {
		if r.PnL < scoreMinPnL {
			continue
		}
		pnlScore := math.Min(r.PnL/scorePnLCap, 1)
		effScore := math.Min(r.Efficiency/scoreEfficiencyCap, 1)
		scores = append(scores, models.TraderScore{
			Wallet:     r.Wallet,
			Username:   r.Username,
			PnL:        r.PnL,
			Volume:     r.Volume,
			Efficiency: r.Efficiency,
			FinalScore: scorePnLWeight*pnlScore + scoreEfficiencyWeight*effScore,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].FinalScore > scores[j].FinalScore })
	return scores
}

type consensusKey struct {
	marketID  string
	direction models.Direction
}

// Build groups positions by market+direction and emits raw signals for
// every pair with enough distinct supporting wallets. Near-resolved markets
// are skipped. Output is sorted by total supporting size, largest first,
// and capped at maxSignals.
func (b *ConsensusBuilder) Build(positionsByWallet map[string][]models.MarketPosition, exposure float64) []*models.RawSignal {
	type group struct {
		title     string
		positions []models.SupportingPosition
		wallets   map[string]bool
		lastPrice float64
	}
	groups := make(map[consensusKey]*group)

	for wallet, positions := range positionsByWallet {
		for _, p := range positions {
			if p.MarketID == "" || !p.Outcome.Valid() || p.CurrentValue <= minPositionValue {
				continue
			}
			if p.CurrentPrice >= resolvedHighPrice || p.CurrentPrice <= resolvedLowPrice {
				continue
			}
			key := consensusKey{marketID: p.MarketID, direction: p.Outcome}
			g, ok := groups[key]
			if !ok {
				g = &group{title: p.MarketTitle, wallets: make(map[string]bool)}
				groups[key] = g
			}
			if g.wallets[wallet] {
				continue // one position per wallet per side
			}
			g.wallets[wallet] = true
			g.positions = append(g.positions, models.SupportingPosition{
				Wallet:   wallet,
				Size:     p.CurrentValue,
				Shares:   p.Shares,
				AvgPrice: p.AvgPrice,
				PnL:      p.PnL,
			})
			if p.CurrentPrice > 0 {
				g.lastPrice = p.CurrentPrice
			}
		}
	}

	cohort := len(positionsByWallet)
	type candidate struct {
		sig        *models.RawSignal
		conviction float64
	}
	candidates := make([]candidate, 0, len(groups))
	for key, g := range groups {
		if len(g.wallets) < b.minConsensus {
			continue
		}
		conviction := 0.0
		if cohort > 0 {
			conviction = float64(len(g.wallets)) / float64(cohort)
		}
		if conviction < b.minConviction {
			continue
		}
		current := g.lastPrice
		if p, ok := b.book.LastPrice(key.marketID); ok {
			current = p
		}
		if current <= 0 || current >= 1 {
			continue
		}
		candidates = append(candidates, candidate{
			sig: &models.RawSignal{
				MarketID:     key.marketID,
				MarketTitle:  g.title,
				Direction:    key.direction,
				Positions:    g.positions,
				PriceHistory: b.book.History(key.marketID),
				CurrentPrice: current,
				Exposure:     exposure,
			},
			conviction: conviction,
		})
	}

	// Strongest agreement first; supporting capital breaks ties.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].conviction != candidates[j].conviction {
			return candidates[i].conviction > candidates[j].conviction
		}
		return totalSize(candidates[i].sig) > totalSize(candidates[j].sig)
	})
	if b.maxSignals > 0 && len(candidates) > b.maxSignals {
		candidates = candidates[:b.maxSignals]
	}
	signals := make([]*models.RawSignal, 0, len(candidates))
	for _, c := range candidates {
		signals = append(signals, c.sig)
	}
	return signals
}

func totalSize(s *models.RawSignal) float64 {
	var sum float64
	for _, p := range s.Positions {
		sum += p.Size
	}
	return sum
}
