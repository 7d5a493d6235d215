package handlers

import (
	"net/http"

	"github.com/custodia-hq/treasury-wallet-api/tokens"
)

// Tokens is a HTTP server for treasury token registry reads and
// disbursements.
type Tokens struct {
	service *tokens.Service
}

func NewTokens(service *tokens.Service) *Tokens {
	return &Tokens{service}
}

func (s *Tokens) List() http.Handler {
	return http.HandlerFunc(s.ListFunc)
}

func (s *Tokens) Details() http.Handler {
	return http.HandlerFunc(s.DetailsFunc)
}

func (s *Tokens) CreateDisbursement() http.Handler {
	return UseJson(http.HandlerFunc(s.CreateDisbursementFunc))
}
