package data

import (
	"context"
	"sync"

	"github.com/hedgeai/marketdata/src/eventmodels"
)

type fakeProvider struct {
	mu           sync.Mutex
	catalog      []eventmodels.Instrument
	catalogErr   error
	catalogCalls int
	quotes       map[string]eventmodels.KiteQuoteDTO
	quotesErr    error
	quoteCalls   int
	lastKeys     []string
}

func (p *fakeProvider) GetQuotes(ctx context.Context, keys []string) (map[string]eventmodels.KiteQuoteDTO, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.quoteCalls++
	p.lastKeys = append([]string{}, keys...)

	if p.quotesErr != nil {
		return nil, p.quotesErr
	}

	result := make(map[string]eventmodels.KiteQuoteDTO)
	for _, key := range keys {
		if quote, found := p.quotes[key]; found {
			result[key] = quote
		}
	}

	return result, nil
}

func (p *fakeProvider) GetInstrumentCatalog(ctx context.Context, exchange string) ([]eventmodels.Instrument, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.catalogCalls++

	if p.catalogErr != nil {
		return nil, p.catalogErr
	}

	return p.catalog, nil
}

type memoryStore struct {
	mu              sync.Mutex
	token           string
	hasToken        bool
	snapshot        *eventmodels.MarketSnapshotDTO
	credentialErr   error
	snapshotErr     error
	credentialSaves int
	snapshotSaves   int
}

func (s *memoryStore) SaveCredential(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credentialErr != nil {
		return s.credentialErr
	}

	s.token = accessToken
	s.hasToken = true
	s.credentialSaves++
	return nil
}

func (s *memoryStore) LoadCredential(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credentialErr != nil {
		return "", false, s.credentialErr
	}

	return s.token, s.hasToken, nil
}

func (s *memoryStore) SaveSnapshot(ctx context.Context, snapshot *eventmodels.MarketSnapshotDTO) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshotErr != nil {
		return s.snapshotErr
	}

	s.snapshot = snapshot
	s.snapshotSaves++
	return nil
}

func (s *memoryStore) LoadSnapshot(ctx context.Context) (*eventmodels.MarketSnapshotDTO, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshotErr != nil {
		return nil, false, s.snapshotErr
	}

	if s.snapshot == nil {
		return nil, false, nil
	}

	return s.snapshot, true, nil
}

func testConfig() *eventmodels.UnderlyingsConfigYAML {
	return &eventmodels.UnderlyingsConfigYAML{
		Exchange:   "NFO",
		StrikeBand: 1500,
		Underlyings: []eventmodels.UnderlyingYAML{
			{Symbol: "NIFTY_50", QuoteKey: "NSE:NIFTY 50", CatalogName: "NIFTY", LotSize: 75},
			{Symbol: "BANKNIFTY", QuoteKey: "NSE:NIFTY BANK", CatalogName: "BANKNIFTY", LotSize: 35},
		},
	}
}
