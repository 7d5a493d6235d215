package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	wallet_errors "github.com/custodia-hq/treasury-wallet-api/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service resolves bearer credentials to callers.
type Service struct {
	store       Store
	internalKey []byte
}

func NewService(internalKey string, store Store) *Service {
	return &Service{store: store, internalKey: []byte(internalKey)}
}

// Resolve turns a bearer credential into a Caller. The internal backend
// credential is checked first with a constant time compare; everything
// else is treated as a session token whose subject must hold an admin
// role. Any other case is rejected before key material is touched.
func (s *Service) Resolve(credential string) (Caller, error) {
	if credential == "" {
		return Caller{}, wallet_errors.Unauthorized(fmt.Errorf("missing credential"))
	}

	if subtle.ConstantTimeCompare([]byte(credential), s.internalKey) == 1 {
		return Caller{Kind: Internal}, nil
	}

	sess, err := s.store.Session(credential)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Caller{}, wallet_errors.Unauthorized(fmt.Errorf("invalid credential"))
		}
		return Caller{}, err
	}

	if sess.Expired() {
		return Caller{}, wallet_errors.Unauthorized(fmt.Errorf("session expired"))
	}

	rr, err := s.store.UserRoles(sess.UserID)
	if err != nil {
		return Caller{}, err
	}

	roles := make([]string, 0, len(rr))
	isAdmin := false
	for _, r := range rr {
		roles = append(roles, r.Role)
		if r.Role == RoleAdmin {
			isAdmin = true
		}
	}

	if !isAdmin {
		log.WithFields(log.Fields{"userId": sess.UserID}).Debug("Rejected non-admin caller")
		return Caller{}, wallet_errors.Forbidden(fmt.Errorf("insufficient role"))
	}

	return Caller{Kind: AdminUser, UserID: sess.UserID, Roles: roles}, nil
}
