// Package handlers provides HTTP handlers for the services across the
// application.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-hq/treasury-wallet-api/errors"
	log "github.com/sirupsen/logrus"
)

var (
	EmptyBodyError   = &errors.RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("empty body")}
	InvalidBodyError = &errors.RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("invalid body")}
)

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, r *http.Request, err error) {
	log.WithFields(log.Fields{
		"error":  err,
		"method": r.Method,
		"path":   r.URL.Path,
	}).Warn("Request failed")

	// RequestError statuses are safe to forward to the client.
	if reqErr, ok := err.(*errors.RequestError); ok {
		http.Error(rw, reqErr.Error(), reqErr.StatusCode)
		return
	}

	http.Error(rw, "Error", http.StatusInternalServerError)
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(res); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not encode response body")
	}
}

func checkNonEmptyBody(r *http.Request) error {
	if r.Body == nil || r.Body == http.NoBody {
		return EmptyBodyError
	}
	return nil
}

func servePlainText(rw http.ResponseWriter, s string) {
	rw.Header().Set("Content-Type", "text/plain")
	rw.WriteHeader(http.StatusOK)
	fmt.Fprint(rw, s)
}
