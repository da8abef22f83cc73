package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	pkgch "ARSPull/pkg/clickhouse"
	applogger "ARSPull/pkg/logger"
)

const signalColumns = "generated_at, expires_at, market_id, market_title, direction, raw_conviction, ars_conviction, ars_score, total_size, avg_entry_price, current_price, expected_edge, num_traders, outliers_removed, avg_consistency, recommended_size, entry_quality, regime, regime_multiplier, traders"

// CHSignalStore implements SignalStore backed by ClickHouse.
type CHSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client, table string) domrepo.SignalStore {
	return &CHSignalStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Store(ctx context.Context, sig *models.ProcessedSignal) error {
	return s.StoreBatch(ctx, []*models.ProcessedSignal{sig})
}

func (s *CHSignalStore) StoreBatch(ctx context.Context, signals []*models.ProcessedSignal) error {
	if len(signals) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; chunked to bound query size.
	const chunkSize = 500
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*20)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.MarketID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sig.GeneratedAt,
				sig.ExpiresAt,
				sig.MarketID,
				sig.MarketTitle,
				string(sig.Direction),
				sig.RawConviction,
				sig.ARSConviction,
				sig.ARSScore,
				sig.TotalSize,
				sig.AvgEntryPrice,
				sig.CurrentPrice,
				sig.ExpectedEdge,
				sig.NumTraders,
				sig.OutliersRemoved,
				sig.AvgConsistency,
				sig.RecommendedSize,
				string(sig.EntryQuality),
				string(sig.Regime),
				sig.RegimeMult,
				strings.Join(sig.Traders, ","),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, signalColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse signal insert error",
					applogger.String("table", s.table),
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store signals: %w", err)
		}
	}
	return nil
}

func (s *CHSignalStore) Latest(ctx context.Context, limit int, direction models.Direction) ([]*models.ProcessedSignal, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT %s FROM %s", signalColumns, s.table)
	args := make([]interface{}, 0, 2)
	if direction != "" {
		q += " WHERE direction = ?"
		args = append(args, string(direction))
	}
	q += " ORDER BY generated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest signals query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ProcessedSignal, 0, limit)
	for rows.Next() {
		var sig models.ProcessedSignal
		var direction, quality, regime, traders string
		if err := rows.Scan(
			&sig.GeneratedAt, &sig.ExpiresAt, &sig.MarketID, &sig.MarketTitle, &direction,
			&sig.RawConviction, &sig.ARSConviction, &sig.ARSScore, &sig.TotalSize,
			&sig.AvgEntryPrice, &sig.CurrentPrice, &sig.ExpectedEdge, &sig.NumTraders,
			&sig.OutliersRemoved, &sig.AvgConsistency, &sig.RecommendedSize,
			&quality, &regime, &sig.RegimeMult, &traders,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Direction = models.Direction(direction)
		sig.EntryQuality = models.EntryQuality(quality)
		sig.Regime = models.Regime(regime)
		if traders != "" {
			sig.Traders = strings.Split(traders, ",")
		}
		out = append(out, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest signals ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // Managed by pkg
}
