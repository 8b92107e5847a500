package external

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terminal-bench/policedash/internal/config"
	"go.uber.org/zap"
)

// FIR is a First Information Report as exchanged with CCTNS.
type FIR struct {
	Number        string    `json:"fir_number"`
	District      string    `json:"district"`
	PoliceStation string    `json:"police_station"`
	Sections      []string  `json:"sections"`
	Status        string    `json:"status"`
	Complainant   string    `json:"complainant,omitempty"`
	Description   string    `json:"description,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// FIRQuery filters an FIR search.
type FIRQuery struct {
	District      string
	PoliceStation string
	Status        string
	From, To      time.Time
}

// SyncResult is CCTNS's acknowledgement of a pushed FIR.
type SyncResult struct {
	FIRNumber string    `json:"fir_number"`
	Accepted  bool      `json:"accepted"`
	SyncedAt  time.Time `json:"synced_at"`
}

// CCTNSClient talks to the Crime and Criminal Tracking Network & Systems.
type CCTNSClient struct {
	c *client
}

// NewCCTNSClient creates a CCTNS client.
func NewCCTNSClient(cfg config.ExternalService, logger *zap.Logger) *CCTNSClient {
	return &CCTNSClient{c: newClient("cctns", cfg, logger)}
}

// GetFIR fetches one FIR by number.
func (c *CCTNSClient) GetFIR(ctx context.Context, number string) (*FIR, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, errors.New("fir number is required")
	}
	var fir FIR
	if err := c.c.do(ctx, http.MethodGet, "/firs/"+url.PathEscape(number), nil, &fir); err != nil {
		return nil, err
	}
	return &fir, nil
}

// SearchFIRs lists FIRs matching q.
func (c *CCTNSClient) SearchFIRs(ctx context.Context, q FIRQuery) ([]FIR, error) {
	params := url.Values{}
	if q.District != "" {
		params.Set("district", q.District)
	}
	if q.PoliceStation != "" {
		params.Set("police_station", q.PoliceStation)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.UTC().Format(time.RFC3339))
	}

	path := "/firs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		FIRs []FIR `json:"firs"`
	}
	if err := c.c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FIRs, nil
}

// SyncFIR pushes a locally recorded FIR to CCTNS.
func (c *CCTNSClient) SyncFIR(ctx context.Context, fir FIR) (*SyncResult, error) {
	if fir.Number == "" || fir.District == "" {
		return nil, errors.New("fir number and district are required")
	}
	var res SyncResult
	if err := c.c.do(ctx, http.MethodPost, "/firs/sync", fir, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
