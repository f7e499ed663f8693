package config

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"p9e.in/tms/models"
	"p9e.in/tms/pkg/authn"
)

// RunAllSeeding runs all seeding operations in the correct order
func RunAllSeeding() {
	log.Println("=== Starting Database Seeding ===")

	log.Println("[1/3] Seeding System Config defaults...")
	SeedSystemConfig()

	log.Println("[2/3] Seeding Rate Card bands...")
	SeedRateCard()

	log.Println("[3/3] Seeding Default Admin...")
	SeedAdminUser()

	log.Println("=== Database Seeding Complete ===")
}

// SeedSystemConfig writes the pricing defaults without overwriting
// values an operator already tuned.
func SeedSystemConfig() {
	defaults := []models.SystemConfig{
		{ConfigKey: models.CfgDieselPrice, ConfigValue: "30.00", Description: "ราคาน้ำมันดีเซลอ้างอิง (บาท/ลิตร)"},
		{ConfigKey: models.CfgFuel4W, ConfigValue: "11.5", Description: "อัตราสิ้นเปลือง 4 ล้อ (กม./ลิตร)"},
		{ConfigKey: models.CfgFuel6W, ConfigValue: "5.5", Description: "อัตราสิ้นเปลือง 6 ล้อ (กม./ลิตร)"},
		{ConfigKey: models.CfgFuel10W, ConfigValue: "3.5", Description: "อัตราสิ้นเปลือง 10 ล้อ (กม./ลิตร)"},
		{ConfigKey: models.CfgDepreciationPerKM, ConfigValue: "3.00", Description: "ค่าเสื่อมต่อกิโลเมตร"},
		{ConfigKey: models.CfgLaborPerDrop, ConfigValue: "50.00", Description: "ค่าแรงยกต่อจุดส่ง"},
		{ConfigKey: models.CfgDefaultToll, ConfigValue: "100.00", Description: "ค่าทางด่วนเหมาจ่าย"},
	}
	for _, cfg := range defaults {
		var existing models.SystemConfig
		err := DB.First(&existing, map[string]interface{}{"Config_Key": cfg.ConfigKey}).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := DB.Create(&cfg).Error; err != nil {
				log.Printf("seed config %s: %v", cfg.ConfigKey, err)
			}
		}
	}
}

// SeedRateCard loads the standard distance bands on an empty table.
func SeedRateCard() {
	var count int64
	DB.Model(&models.RateCardRow{}).Count(&count)
	if count > 0 {
		return
	}
	bands := []models.RateCardRow{
		{DistanceKM: 50, P1_4W: "800", P1_6W: "1,200", P1_10W: "1,800", P2_4W: "850", P2_6W: "1,280", P2_10W: "1,900", P3_4W: "900", P3_6W: "1,350", P3_10W: "2,000", P4_4W: "950", P4_6W: "1,430", P4_10W: "2,100"},
		{DistanceKM: 100, P1_4W: "1,150", P1_6W: "1,700", P1_10W: "2,600", P2_4W: "1,220", P2_6W: "1,800", P2_10W: "2,750", P3_4W: "1,300", P3_6W: "1,900", P3_10W: "2,900", P4_4W: "1,380", P4_6W: "2,000", P4_10W: "3,050"},
		{DistanceKM: 150, P1_4W: "1,350", P1_6W: "2,100", P1_10W: "3,200", P2_4W: "1,420", P2_6W: "2,220", P2_10W: "3,380", P3_4W: "1,500", P3_6W: "2,350", P3_10W: "3,550", P4_4W: "1,580", P4_6W: "2,480", P4_10W: "3,750"},
		{DistanceKM: 250, P1_4W: "1,900", P1_6W: "2,900", P1_10W: "4,400", P2_4W: "2,000", P2_6W: "3,050", P2_10W: "4,650", P3_4W: "2,100", P3_6W: "3,200", P3_10W: "4,900", P4_4W: "2,220", P4_6W: "3,400", P4_10W: "5,150"},
		{DistanceKM: 400, P1_4W: "2,800", P1_6W: "4,300", P1_10W: "6,500", P2_4W: "2,950", P2_6W: "4,550", P2_10W: "6,850", P3_4W: "3,100", P3_6W: "4,800", P3_10W: "7,250", P4_4W: "3,300", P4_6W: "5,050", P4_10W: "7,650"},
		{DistanceKM: 600, P1_4W: "3,900", P1_6W: "6,000", P1_10W: "9,100", P2_4W: "4,100", P2_6W: "6,350", P2_10W: "9,600", P3_4W: "4,350", P3_6W: "6,700", P3_10W: "10,150", P4_4W: "4,600", P4_6W: "7,100", P4_10W: "10,700"},
	}
	if err := DB.Create(&bands).Error; err != nil {
		log.Printf("seed rate card: %v", err)
	}
}

// SeedAdminUser creates admin/admin1234 on first boot only.
func SeedAdminUser() {
	var existing models.User
	err := DB.First(&existing, map[string]interface{}{"Username": "admin"}).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("seed admin: %v", err)
		return
	}
	hash, err := authn.HashPassword("admin1234")
	if err != nil {
		log.Printf("seed admin: hash: %v", err)
		return
	}
	admin := models.User{
		Username:     "admin",
		PasswordHash: hash,
		DisplayName:  "System Admin",
		Role:         "admin",
		BranchID:     "HEAD",
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("seed admin: %v", err)
		return
	}
	log.Println("created default admin user (change the password!)")
}
