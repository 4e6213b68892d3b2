// Package chembl is a minimal REST client for the ChEMBL web services,
// covering target search, IC50 activity listing and molecule property
// retrieval.
package chembl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moleculab/sarscope/internal/config"
	"github.com/moleculab/sarscope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/moleculab/sarscope/pkg/errors"
)

// Target is a protein target hit returned by target search.
type Target struct {
	ChemblID   string `json:"target_chembl_id"`
	PrefName   string `json:"pref_name"`
	Organism   string `json:"organism"`
	TargetType string `json:"target_type"`
}

// Activity is a single IC50 measurement for a molecule against a target.
type Activity struct {
	MoleculeChemblID string
	TargetChemblID   string
	StandardValue    float64 // nM
}

// MoleculeProperties are the structural descriptors of one molecule.
type MoleculeProperties struct {
	ChemblID string
	PrefName string
	MW       float64
	LogP     float64
	HBD      float64
	HBA      float64
	PSA      float64
}

// Client talks to the ChEMBL web services.  Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pageSize   int
	maxRetries int
	backoff    time.Duration
	userAgent  string
	maxRows    int
	logger     logging.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.ChEMBLConfig, logger logging.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		userAgent:  cfg.UserAgent,
		maxRows:    cfg.MaxActivityRows,
		logger:     logger.Named("chembl"),
	}
}

// SearchTargets finds protein targets whose preferred name matches the query.
func (c *Client) SearchTargets(ctx context.Context, query string, limit int) ([]Target, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.New(apperrors.ErrCodeSourceTargetEmpty, "target query must not be empty")
	}
	if limit < 1 {
		limit = c.pageSize
	}

	params := url.Values{}
	params.Set("pref_name__icontains", query)
	params.Set("target_type", "SINGLE PROTEIN")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("format", "json")

	var payload struct {
		Targets []Target `json:"targets"`
	}
	if err := c.getJSON(ctx, "/target.json", params, &payload); err != nil {
		return nil, err
	}
	return payload.Targets, nil
}

// FetchActivities pages through all IC50 activities for a target, up to the
// configured row cap.  Records without a usable standard value are skipped.
func (c *Client) FetchActivities(ctx context.Context, targetChemblID string) ([]Activity, error) {
	if targetChemblID == "" {
		return nil, apperrors.New(apperrors.ErrCodeSourceTargetEmpty, "target chembl id must not be empty")
	}

	var out []Activity
	offset := 0
	for {
		params := url.Values{}
		params.Set("target_chembl_id", targetChemblID)
		params.Set("standard_type", "IC50")
		params.Set("standard_units", "nM")
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("format", "json")

		var payload struct {
			Activities []struct {
				MoleculeChemblID string `json:"molecule_chembl_id"`
				StandardValue    string `json:"standard_value"`
			} `json:"activities"`
			PageMeta struct {
				Next string `json:"next"`
			} `json:"page_meta"`
		}
		if err := c.getJSON(ctx, "/activity.json", params, &payload); err != nil {
			return nil, err
		}

		for _, a := range payload.Activities {
			v, err := strconv.ParseFloat(a.StandardValue, 64)
			if err != nil || a.MoleculeChemblID == "" {
				continue
			}
			out = append(out, Activity{
				MoleculeChemblID: a.MoleculeChemblID,
				TargetChemblID:   targetChemblID,
				StandardValue:    v,
			})
		}

		offset += c.pageSize
		if payload.PageMeta.Next == "" || len(payload.Activities) == 0 || len(out) >= c.maxRows {
			break
		}
	}

	c.logger.Debug("fetched activities",
		logging.String("target", targetChemblID),
		logging.Int("count", len(out)))
	return out, nil
}

// FetchMolecules retrieves structural properties for a batch of molecule
// identifiers.  Molecules missing any required property are omitted from the
// result; callers count the gap as excluded rows.
func (c *Client) FetchMolecules(ctx context.Context, chemblIDs []string) (map[string]MoleculeProperties, error) {
	out := make(map[string]MoleculeProperties, len(chemblIDs))

	for start := 0; start < len(chemblIDs); start += c.pageSize {
		end := start + c.pageSize
		if end > len(chemblIDs) {
			end = len(chemblIDs)
		}

		params := url.Values{}
		params.Set("molecule_chembl_id__in", strings.Join(chemblIDs[start:end], ","))
		params.Set("limit", strconv.Itoa(c.pageSize))
		params.Set("format", "json")

		var payload struct {
			Molecules []struct {
				ChemblID   string `json:"molecule_chembl_id"`
				PrefName   string `json:"pref_name"`
				Properties *struct {
					MWFreebase string `json:"mw_freebase"`
					ALogP      string `json:"alogp"`
					HBD        string `json:"hbd"`
					HBA        string `json:"hba"`
					PSA        string `json:"psa"`
				} `json:"molecule_properties"`
			} `json:"molecules"`
		}
		if err := c.getJSON(ctx, "/molecule.json", params, &payload); err != nil {
			return nil, err
		}

		for _, m := range payload.Molecules {
			if m.Properties == nil {
				continue
			}
			props, ok := parseProperties(m.Properties.MWFreebase, m.Properties.ALogP,
				m.Properties.HBD, m.Properties.HBA, m.Properties.PSA)
			if !ok {
				continue
			}
			props.ChemblID = m.ChemblID
			props.PrefName = m.PrefName
			out[m.ChemblID] = props
		}
	}

	return out, nil
}

func parseProperties(mw, logp, hbd, hba, psa string) (MoleculeProperties, bool) {
	var p MoleculeProperties
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{mw, &p.MW}, {logp, &p.LogP}, {hbd, &p.HBD}, {hba, &p.HBA}, {psa, &p.PSA},
	} {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return MoleculeProperties{}, false
		}
		*f.dst = v
	}
	return p, true
}

// getJSON performs a GET with retries on transient failures and decodes the
// JSON body into dst.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperrors.Wrap(ctx.Err(), apperrors.ErrCodeTimeout, "chembl request cancelled")
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		err := c.doOnce(ctx, endpoint, dst)
		if err == nil {
			return nil
		}
		lastErr = err

		// Client-side errors will not heal on retry.
		if apperrors.IsClientError(apperrors.GetCode(err)) {
			return err
		}
		c.logger.Warn("chembl request failed, retrying",
			logging.String("path", path),
			logging.Int("attempt", attempt+1),
			logging.Err(err))
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "building chembl request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSourceUnavailable, "chembl request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.ErrCodeSourceRateLimited, "chembl rate limit exceeded")
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.ErrCodeSourceUnavailable,
			fmt.Sprintf("chembl returned status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.New(apperrors.ErrCodeSourceParseError,
			fmt.Sprintf("chembl returned status %d", resp.StatusCode)).
			WithDetail(string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSourceParseError, "decoding chembl response")
	}
	return nil
}
