package nft

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityDesk/internal/model"
)

// DefaultBaseURL is the NFT API endpoint. %s is replaced by the chain subdomain.
const DefaultBaseURL = "https://%s.g.alchemy.com/nft/v3"

// DefaultSubdomains maps chain ids to API subdomains.
var DefaultSubdomains = map[uint64]string{
	1:        "eth-mainnet",
	10:       "opt-mainnet",
	8453:     "base-mainnet",
	42161:    "arb-mainnet",
	11155111: "eth-sepolia",
}

// Config configures the NFT API client.
type Config struct {
	APIKey     string
	BaseURL    string
	Subdomains map[uint64]string
	Timeout    time.Duration
}

// Client lists NFTs owned by an account.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Params selects one page of NFTs.
type Params struct {
	ChainID  uint64
	Owner    common.Address
	Contract common.Address
	PageKey  string
}

// NewClient builds a client. A missing API key is reported per request, not here.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Subdomains == nil {
		cfg.Subdomains = DefaultSubdomains
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *Client) endpoint(chainID uint64) (string, error) {
	subdomain, ok := c.cfg.Subdomains[chainID]
	if !ok {
		return "", fmt.Errorf("%w: chain %d is not supported by the NFT API", model.ErrAPIUnavailable, chainID)
	}
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: API key not configured", model.ErrAPIUnavailable)
	}
	base := c.cfg.BaseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, subdomain)
	}
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(c.cfg.APIKey) + "/getNFTsForOwner", nil
}

// OwnedNFTs returns one page of NFTs held by Owner in Contract.
func (c *Client) OwnedNFTs(ctx context.Context, params Params) (model.NFTPage, error) {
	endpoint, err := c.endpoint(params.ChainID)
	if err != nil {
		return model.NFTPage{}, err
	}

	query := url.Values{}
	query.Set("owner", params.Owner.Hex())
	query.Add("contractAddresses[]", params.Contract.Hex())
	query.Set("withMetadata", "true")
	if params.PageKey != "" {
		query.Set("pageKey", params.PageKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return model.NFTPage{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NFTPage{}, fmt.Errorf("%w: %v", model.ErrAPIUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NFTPage{}, fmt.Errorf("%w: read body: %v", model.ErrAPIUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.NFTPage{}, fmt.Errorf("%w: status %d: %s", model.ErrAPIUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page model.NFTPage
	if err := json.Unmarshal(body, &page); err != nil {
		return model.NFTPage{}, fmt.Errorf("decode nft page: %w", err)
	}
	c.logger.Debug("nft page fetched",
		zap.Uint64("chain_id", params.ChainID),
		zap.Int("count", len(page.OwnedNFTs)),
		zap.Bool("has_next", page.PageKey != ""),
	)
	return page, nil
}

// AllOwnedNFTs follows page keys until the listing is exhausted or limit NFTs were collected.
// A limit of zero means no limit.
func (c *Client) AllOwnedNFTs(ctx context.Context, params Params, limit int) ([]model.OwnedNFT, error) {
	var out []model.OwnedNFT
	for {
		page, err := c.OwnedNFTs(ctx, params)
		if err != nil {
			return out, err
		}
		out = append(out, page.OwnedNFTs...)
		if page.PageKey == "" || (limit > 0 && len(out) >= limit) {
			break
		}
		params.PageKey = page.PageKey
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
