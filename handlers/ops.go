package handlers

import (
	"net/http"

	"github.com/custodia-hq/treasury-wallet-api/ops"
)

// Ops is a HTTP server for the operations wallet. Both routes are
// internal only; the service enforces the caller check.
type Ops struct {
	service *ops.Service
}

func NewOps(service *ops.Service) *Ops {
	return &Ops{service}
}

func (s *Ops) WalletAddress() http.Handler {
	return http.HandlerFunc(s.WalletAddressFunc)
}

func (s *Ops) FundFeePayer() http.Handler {
	return UseJson(http.HandlerFunc(s.FundFeePayerFunc))
}
