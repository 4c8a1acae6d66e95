package database

import (
	"log"

	"kensetsu-backend/internal/config"
	"kensetsu-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	// TranslateError so unique-constraint violations surface as
	// gorm.ErrDuplicatedKey; the progress upsert relies on it.
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("database connected, migration complete")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Vendor{},
		&models.Project{},
		&models.Cost{},
		&models.MonthlyProgress{},
		&models.Receivable{},
		&models.Payable{},
		&models.AuditLog{},
	)
}
