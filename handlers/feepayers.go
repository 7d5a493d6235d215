package handlers

import (
	"net/http"

	"github.com/custodia-hq/treasury-wallet-api/balances"
	"github.com/custodia-hq/treasury-wallet-api/keys"
)

// FeePayers is a HTTP server for fee payer key management. Selection is
// the only route that returns secret material and is mounted on the
// internal surface only.
type FeePayers struct {
	service  *keys.Service
	balances *balances.Service
}

func NewFeePayers(service *keys.Service, balances *balances.Service) *FeePayers {
	return &FeePayers{service, balances}
}

func (s *FeePayers) List() http.Handler {
	return http.HandlerFunc(s.ListFunc)
}

func (s *FeePayers) Select() http.Handler {
	return UseJson(http.HandlerFunc(s.SelectFunc))
}

func (s *FeePayers) SetActive() http.Handler {
	return UseJson(http.HandlerFunc(s.SetActiveFunc))
}

func (s *FeePayers) RefreshBalances() http.Handler {
	return http.HandlerFunc(s.RefreshBalancesFunc)
}
