package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/custodia-hq/treasury-wallet-api/tokens"
	"github.com/gorilla/mux"
)

func (s *Tokens) ListFunc(rw http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.FormValue("limit"))
	if err != nil {
		limit = 0
	}

	offset, err := strconv.Atoi(r.FormValue("offset"))
	if err != nil {
		offset = 0
	}

	res, err := s.service.List(callerFromRequest(r), limit, offset)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Tokens) DetailsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res, err := s.service.Details(callerFromRequest(r), vars["tokenId"])

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Tokens) CreateDisbursementFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	var req tokens.DisbursementRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.Disburse(r.Context(), callerFromRequest(r), vars["tokenId"], req)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}
