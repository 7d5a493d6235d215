package system

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store}
}

func (svc *Service) GetSettings() (*Settings, error) {
	return svc.store.GetSettings()
}

func (svc *Service) SaveSettings(settings *Settings) error {
	if settings.ID == 0 {
		return fmt.Errorf("settings object has no ID, get an existing settings first and alter it")
	}
	log.WithFields(log.Fields{"settings": settings}).Trace("Save system settings")
	return svc.store.SaveSettings(settings)
}

// IsMaintenanceMode reports whether value changing operations should be
// refused. Unreadable settings count as maintenance.
func (svc *Service) IsMaintenanceMode() bool {
	settings, err := svc.store.GetSettings()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not get system settings")
		return true
	}
	return settings.IsMaintenanceMode()
}
