// Package transmit delivers insights to the analytics endpoint, one
// authenticated POST per insight.
package transmit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/insight"
)

// ErrMissingToken is reported when no bearer credential is configured.
var ErrMissingToken = errors.New("admin token not configured")

const (
	HeaderRequestID = "X-Request-ID"
	HeaderRunID     = "X-Run-ID"

	bodySnippetLimit = 512
)

// Outcome classifies a single delivery attempt.
type Outcome int

const (
	// Delivered means the endpoint answered 2xx.
	Delivered Outcome = iota
	// Rejected means the endpoint answered with a non-2xx status.
	Rejected
	// Failed means no response was obtained.
	Failed
	// Invalid means the insight could not be serialized and was not sent.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Record is the delivery result of one insight.
type Record struct {
	Title     string
	Category  insight.Category
	RequestID string
	Outcome   Outcome
	Status    int
	Body      string
	Err       error
}

// Result summarizes one Send call.
type Result struct {
	RunID   string
	Records []Record
	// Err is set when the whole batch was skipped or interrupted.
	Err error
}

// Count returns the number of records with outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == o {
			n++
		}
	}
	return n
}

// Sender posts insights sequentially with a fixed delay between requests.
type Sender struct {
	URL     string
	Token   string
	Timeout time.Duration
	Delay   time.Duration

	client *http.Client
	log    *zap.Logger
}

// NewSender creates a sender. A nil logger discards output.
func NewSender(url, token string, timeout, delay time.Duration, log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{
		URL:     url,
		Token:   token,
		Timeout: timeout,
		Delay:   delay,
		client:  &http.Client{},
		log:     log,
	}
}

// Send posts every insight in order. Per-insight failures are recorded and
// logged without stopping the loop. With no token nothing is sent, each
// title is logged, and Result.Err is ErrMissingToken.
func (s *Sender) Send(ctx context.Context, insights []insight.Insight) *Result {
	res := &Result{RunID: uuid.NewString()}
	if s.Token == "" {
		for _, in := range insights {
			s.log.Info("insight generated, not sent",
				zap.String("title", in.Title),
				zap.String("category", string(in.Category())),
			)
		}
		s.log.Error("skipping transmission", zap.Error(ErrMissingToken), zap.Int("insights", len(insights)))
		res.Err = ErrMissingToken
		return res
	}

	log := s.log.With(zap.String("run_id", res.RunID))
	log.Info("transmitting insights", zap.Int("count", len(insights)), zap.String("url", s.URL))

	for i, in := range insights {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				res.Err = ctx.Err()
				log.Warn("transmission interrupted", zap.Int("sent", i), zap.Error(res.Err))
				return res
			case <-time.After(s.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			log.Warn("transmission interrupted", zap.Int("sent", i), zap.Error(err))
			return res
		}

		rec := s.post(ctx, res.RunID, in)
		fields := []zap.Field{
			zap.String("title", rec.Title),
			zap.String("category", string(rec.Category)),
			zap.String("request_id", rec.RequestID),
		}
		switch rec.Outcome {
		case Delivered:
			log.Info("insight delivered", append(fields, zap.Int("status", rec.Status))...)
		case Rejected:
			log.Error("insight rejected", append(fields, zap.Int("status", rec.Status), zap.String("body", rec.Body))...)
		case Failed:
			log.Error("insight not delivered", append(fields, zap.Error(rec.Err))...)
		case Invalid:
			log.Error("insight not serializable", append(fields, zap.Error(rec.Err))...)
		}
		res.Records = append(res.Records, rec)
	}

	log.Info("transmission finished",
		zap.Int("delivered", res.Count(Delivered)),
		zap.Int("rejected", res.Count(Rejected)),
		zap.Int("failed", res.Count(Failed)+res.Count(Invalid)),
	)
	return res
}

func (s *Sender) post(ctx context.Context, runID string, in insight.Insight) Record {
	rec := Record{
		Title:     in.Title,
		Category:  in.Category(),
		RequestID: uuid.NewString(),
	}

	data, err := json.Marshal(in)
	if err != nil {
		rec.Outcome = Invalid
		rec.Err = fmt.Errorf("marshaling insight: %w", err)
		return rec
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(data))
	if err != nil {
		rec.Outcome = Failed
		rec.Err = fmt.Errorf("creating request: %w", err)
		return rec
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set(HeaderRequestID, rec.RequestID)
	req.Header.Set(HeaderRunID, runID)

	resp, err := s.client.Do(req)
	if err != nil {
		rec.Outcome = Failed
		rec.Err = err
		return rec
	}
	defer resp.Body.Close()

	rec.Status = resp.StatusCode
	body, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rec.Outcome = Rejected
		rec.Body = strings.TrimSpace(string(body))
		return rec
	}
	rec.Outcome = Delivered
	return rec
}
