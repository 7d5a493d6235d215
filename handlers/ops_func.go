package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Ops) WalletAddressFunc(rw http.ResponseWriter, r *http.Request) {
	address, err := s.service.WalletAddress(callerFromRequest(r))

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, map[string]string{"address": address})
}

func (s *Ops) FundFeePayerFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	keyID, err := strconv.Atoi(vars["keyId"])
	if err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	var req struct {
		Amount string `json:"amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.FundFeePayer(r.Context(), callerFromRequest(r), keyID, req.Amount)

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}
