package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"Stockyard/internal/domain/models"
	drepo "Stockyard/internal/domain/repository"
	xhttp "Stockyard/pkg/http"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by an auction sale WebSocket feed.
// Exchanges publish one frame per hammer fall with the lot's attributes.
type Client struct {
	apiKey         string
	websocketURL   string
	backfillURL    string
	markets        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	rest      *xhttp.Client
	connected bool
}

// New creates a new auction-feed MarketStream.
func New(apiKey, websocketURL, backfillURL string, markets []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		backfillURL:    backfillURL,
		markets:        markets,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		rest:           xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("feed: connected")
	return nil
}

// Subscribe subscribes to configured market locations.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("feed not connected")
	}
	for _, m := range c.markets {
		msg := map[string]string{"type": "subscribe", "market": m}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", m, err)
		}
		log.Printf("feed: subscribed %s", m)
	}
	return nil
}

type feedSale struct {
	Market string  `json:"m"`
	Breed  string  `json:"b"`
	Season string  `json:"s"`
	Price  float64 `json:"p"`
	Weight float64 `json:"w"`
	Age    float64 `json:"a"`
	T      int64   `json:"t"` // ms
}

type feedMessage struct {
	Type string     `json:"type"`
	Data []feedSale `json:"data"`
}

// Read streams sale records and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.SaleRecord, <-chan error) {
	records := make(chan *models.SaleRecord, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(records)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var m feedMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-sale frames
					continue
				}
				if m.Type != "sale" {
					continue
				}
				for _, d := range m.Data {
					rec := saleToRecord(d)
					select {
					case records <- rec:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return records, errs
}

// Backfill fetches recent sale history over REST, for warming up rolling
// windows before the live stream takes over. Returns nil when no backfill
// endpoint is configured.
func (c *Client) Backfill(ctx context.Context, market string, days int) ([]*models.SaleRecord, error) {
	if c.backfillURL == "" {
		return nil, nil
	}
	var resp struct {
		Data []feedSale `json:"data"`
	}
	err := c.rest.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.backfillURL,
		Headers: map[string]string{
			"X-API-Key": c.apiKey,
		},
		QueryParams: map[string][]string{
			"market": {market},
			"days":   {fmt.Sprintf("%d", days)},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("feed backfill %s: %w", market, err)
	}
	out := make([]*models.SaleRecord, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, saleToRecord(d))
	}
	return out, nil
}

func saleToRecord(d feedSale) *models.SaleRecord {
	return &models.SaleRecord{
		Date:   time.Unix(d.T/1000, 0).UTC(),
		Price:  d.Price,
		Weight: d.Weight,
		Age:    d.Age,
		Breed:  d.Breed,
		Season: d.Season,
		Market: d.Market,
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
