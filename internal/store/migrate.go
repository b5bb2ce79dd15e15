package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// Migrate creates or updates the database schema for every model
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&schema.ProgramConfig{},
		&schema.Staker{},
		&schema.Collection{},
		&schema.Emission{},
		&schema.StakeRecord{},
		&schema.NftRecord{},
		&schema.Distribution{},
		&schema.ShareRecord{},
		&schema.WebhookEndpoint{},
		&schema.WebhookDelivery{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
