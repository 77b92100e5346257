package db

import (
	"fmt"
	"log"
	"time"

	"Gin_postgres_redis_tickets/config"
	"Gin_postgres_redis_tickets/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func ConnectDB(cfg config.DBConfig) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB: ", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return db
}

func Migrate(db *gorm.DB) error {
	// 枚举类型只有 Postgres 有
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`
		  DO $$ BEGIN
		    CREATE TYPE appointment_format AS ENUM ('ONLINE', 'OFFLINE');
		  EXCEPTION WHEN duplicate_object THEN NULL;
		  END $$;
		`).Error; err != nil {
			return fmt.Errorf("create enum: %w", err)
		}
	}

	if err := db.AutoMigrate(&models.Appointment{}, &models.Invitation{}); err != nil {
		return err
	}

	// 按预约查邀请
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_appointment_used
	  ON %s (appointment_id, used);
	`, models.InvitationTable, models.InvitationTable)).Error; err != nil {
		return err
	}
	return nil
}
