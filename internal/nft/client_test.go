package nft

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDesk/internal/model"
)

var (
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	manager = common.HexToAddress("0xbD216513d74C8cf14cf4747E6AaA6420FF64ee9e")
)

func TestOwnedNFTsPaging(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secret/getNFTsForOwner" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("owner") != owner.Hex() || q.Get("contractAddresses[]") != manager.Hex() || q.Get("withMetadata") != "true" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		mu.Lock()
		seen = append(seen, q.Get("pageKey"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageKey") == "" {
			_, _ = w.Write([]byte(`{"ownedNfts":[{"tokenId":"1","name":"Position 1","contract":{"address":"0xbd21"},"image":{"cachedUrl":"https://img/1"}}],"totalCount":2,"pageKey":"next"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ownedNfts":[{"tokenId":"2","contract":{"address":"0xbd21"},"image":{}}],"totalCount":2}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Subdomains: map[uint64]string{1: "eth-mainnet"}}, nil)
	params := Params{ChainID: 1, Owner: owner, Contract: manager}

	page, err := client.OwnedNFTs(context.Background(), params)
	if err != nil {
		t.Fatalf("owned nfts: %v", err)
	}
	if len(page.OwnedNFTs) != 1 || page.OwnedNFTs[0].TokenID != "1" || page.PageKey != "next" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.OwnedNFTs[0].Image.CachedURL != "https://img/1" {
		t.Fatalf("unexpected image: %+v", page.OwnedNFTs[0].Image)
	}

	all, err := client.AllOwnedNFTs(context.Background(), params, 0)
	if err != nil {
		t.Fatalf("all owned nfts: %v", err)
	}
	if len(all) != 2 || all[1].TokenID != "2" {
		t.Fatalf("unexpected listing: %+v", all)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[2] != "next" {
		t.Fatalf("unexpected page keys: %v", seen)
	}
}

func TestOwnedNFTsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cases := []struct {
		name   string
		client *Client
		chain  uint64
	}{
		{"missing key", NewClient(Config{BaseURL: server.URL}, nil), 1},
		{"unsupported chain", NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil), 5},
		{"bad status", NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil), 1},
	}
	for _, tc := range cases {
		_, err := tc.client.OwnedNFTs(context.Background(), Params{ChainID: tc.chain, Owner: owner, Contract: manager})
		if !errors.Is(err, model.ErrAPIUnavailable) {
			t.Fatalf("%s: expected ErrAPIUnavailable, got %v", tc.name, err)
		}
	}
}

func TestEndpointSubstitutesSubdomain(t *testing.T) {
	client := NewClient(Config{APIKey: "k"}, nil)
	got, err := client.endpoint(11155111)
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	if got != "https://eth-sepolia.g.alchemy.com/nft/v3/k/getNFTsForOwner" {
		t.Fatalf("unexpected endpoint: %s", got)
	}
}
