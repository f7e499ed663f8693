package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/tms/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250301_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Job{}, &models.Driver{}, &models.Customer{},
					&models.Route{}, &models.Vehicle{}, &models.User{}, &models.RateCardRow{})
			},
		},
		{
			ID: "20250315_add_fleet_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.FuelLog{}, &models.RepairTicket{})
			},
		},
		{
			ID: "20250402_add_system_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.SystemLog{}, &models.SystemConfig{},
					&models.Notification{})
			},
		},
		{
			ID: "20250520_add_user_prefs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.UserPref{})
			},
		},
		{
			ID: "20250611_add_customer_payment_columns",
			Migrate: func(tx *gorm.DB) error {
				// older deployments predate customer-side settlement tracking
				for _, col := range []string{
					`ALTER TABLE "Jobs_Main" ADD COLUMN IF NOT EXISTS "Customer_Payment_Status" text`,
					`ALTER TABLE "Jobs_Main" ADD COLUMN IF NOT EXISTS "Customer_Payment_Date" timestamptz`,
					`ALTER TABLE "Jobs_Main" ADD COLUMN IF NOT EXISTS "Customer_Payment_Slip_Url" text`,
				} {
					if err := tx.Exec(col).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})
	return m.Migrate()
}
