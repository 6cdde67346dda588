package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ah-arbitrage/internal/models"
)

// ErrNoDSN is returned when persistence is requested without a DSN.
var ErrNoDSN = errors.New("database url is empty")

// Initialize opens the MySQL database and migrates the comparison tables.
func Initialize(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, ErrNoDSN
	}

	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to MySQL database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the comparison run tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ComparisonRun{}, &models.ComparisonRow{}); err != nil {
		return errors.Wrap(err, "migrate comparison tables")
	}
	return nil
}
