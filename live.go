// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package poolsync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	logpkg "github.com/luxfi/log"
)

// HeadFollower drives the Live phase's follow-distance subscription over a
// raw websocket JSON-RPC `eth_subscribe("newHeads")` feed, used directly
// rather than through a full JSON-RPC client since newHeads is the only
// method this system ever sends over the socket. It reconnects with the
// same bounded exponential backoff rpcfetch uses for transient transport
// errors.
type HeadFollower struct {
	url  string
	conn *websocket.Conn
	log  logpkg.Logger
}

// NewHeadFollower dials url (a `ws://` or `wss://` endpoint) and subscribes
// to newHeads. The connection is re-established transparently by Follow on
// read failure.
func NewHeadFollower(url string) (*HeadFollower, error) {
	f := &HeadFollower{url: url, log: logpkg.Root()}
	if err := f.dial(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *HeadFollower) dial() error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return fmt.Errorf("live: dial %s: %w", f.url, err)
	}
	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []any{"newHeads"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("live: subscribe newHeads: %w", err)
	}
	// The subscription ack is the first message; discard it, keyed by id.
	var ack struct {
		ID     int    `json:"id"`
		Result string `json:"result"`
	}
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return fmt.Errorf("live: reading subscription ack: %w", err)
	}
	f.conn = conn
	return nil
}

// Close releases the underlying websocket connection.
func (f *HeadFollower) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}

type subscriptionNotice struct {
	Params struct {
		Result struct {
			Number string `json:"number"`
		} `json:"result"`
	} `json:"params"`
}

// Follow streams newly announced block numbers on the returned channel
// until ctx is cancelled. Transient read/reconnect failures are retried
// with backoff; a terminal failure (ctx cancelled, or backoff exhausted)
// closes the heads channel. When backoff is exhausted the reconnect error is
// first sent on the error channel, which is never closed.
func (f *HeadFollower) Follow(ctx context.Context) (<-chan uint64, <-chan error) {
	heads := make(chan uint64, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(heads)
		for {
			if ctx.Err() != nil {
				return
			}
			num, err := f.readOne()
			if err == nil {
				select {
				case heads <- num:
				case <-ctx.Done():
					return
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			f.log.Warn("live: head subscription read failed, reconnecting", "err", err)
			if rerr := f.reconnect(ctx); rerr != nil {
				select {
				case errs <- rerr:
				default:
				}
				return
			}
		}
	}()

	return heads, errs
}

func (f *HeadFollower) readOne() (uint64, error) {
	var notice subscriptionNotice
	if err := f.conn.ReadJSON(&notice); err != nil {
		return 0, err
	}
	hexNum := strings.TrimPrefix(notice.Params.Result.Number, "0x")
	n, err := strconv.ParseUint(hexNum, 16, 64)
	if err != nil {
		return 0, &DecodeError{Op: "live.decode_head", Err: err}
	}
	return n, nil
}

// reconnect re-dials with the same bounded exponential backoff policy the
// fetcher uses for transient RPC errors (base 1s, x2, jitter, capped
// attempts).
func (f *HeadFollower) reconnect(ctx context.Context) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 1 * time.Second
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(eb, 8)

	return backoff.Retry(func() error {
		if f.conn != nil {
			f.conn.Close()
		}
		return f.dial()
	}, backoff.WithContext(policy, ctx))
}
