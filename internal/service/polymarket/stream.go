package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"ARSPull/internal/domain/models"
	drepo "ARSPull/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a PriceStream backed by the Polymarket market channel.
type Stream struct {
	websocketURL   string
	assetIDs       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a price stream for the given asset (token) IDs.
func NewStream(websocketURL string, assetIDs []string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	return &Stream{
		websocketURL:   websocketURL,
		assetIDs:       assetIDs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// SetAssets replaces the subscription set; takes effect on the next
// Subscribe or Reconnect.
func (s *Stream) SetAssets(assetIDs []string) {
	s.mu.Lock()
	s.assetIDs = assetIDs
	s.mu.Unlock()
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Subscribe subscribes to the market channel for the configured assets.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, connected, assets := s.conn, s.connected, s.assetIDs
	s.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("polymarket not connected")
	}
	msg := map[string]interface{}{"type": "market", "assets_ids": assets}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %d assets: %w", len(assets), err)
	}
	return nil
}

type pmPriceChange struct {
	AssetID string `json:"asset_id"`
	Market  string `json:"market"`
	Price   string `json:"price"`
	Time    string `json:"timestamp"` // ms since epoch
}

type pmMessage struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Market    string          `json:"market"`
	Price     string          `json:"price"`
	Time      string          `json:"timestamp"`
	Changes   []pmPriceChange `json:"price_changes"`
}

// Read streams price ticks and errors. The tick channel drops on
// backpressure rather than stalling the read loop.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("polymarket conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("polymarket read: %w", err)
					return
				}
				var m pmMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-JSON frames
					continue
				}
				for _, tick := range ticksFrom(&m) {
					select {
					case ticks <- tick:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// ticksFrom flattens one frame into zero or more ticks. last_trade_price
// frames carry a single price; price_change frames carry a batch.
func ticksFrom(m *pmMessage) []*models.PriceTick {
	switch m.EventType {
	case "last_trade_price":
		if t := parseTick(m.Market, m.Price, m.Time); t != nil {
			return []*models.PriceTick{t}
		}
	case "price_change":
		out := make([]*models.PriceTick, 0, len(m.Changes))
		for _, ch := range m.Changes {
			if t := parseTick(ch.Market, ch.Price, ch.Time); t != nil {
				out = append(out, t)
			}
		}
		return out
	}
	return nil
}

func parseTick(market, price, ts string) *models.PriceTick {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil || p <= 0 || p >= 1 || market == "" {
		return nil
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		ms = time.Now().UnixMilli()
	}
	return &models.PriceTick{MarketID: market, Price: p, Timestamp: ms / 1000}
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
