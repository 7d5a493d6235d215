package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/custodia-hq/treasury-wallet-api/keys"
	"github.com/gorilla/mux"
)

func (s *FeePayers) ListFunc(rw http.ResponseWriter, r *http.Request) {
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

func (s *FeePayers) SelectFunc(rw http.ResponseWriter, r *http.Request) {
	var req keys.SelectRequest

	// An empty body means default selection.
	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(rw, r, InvalidBodyError)
			return
		}
	}

	res, err := s.service.Select(callerFromRequest(r), req)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *FeePayers) SetActiveFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["keyId"])
	if err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	var req struct {
		IsActive *bool `json:"isActive"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.SetActive(callerFromRequest(r), id, *req.IsActive)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *FeePayers) RefreshBalancesFunc(rw http.ResponseWriter, r *http.Request) {
	network := r.FormValue("network")

	res, err := s.balances.Refresh(r.Context(), callerFromRequest(r), network)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}
