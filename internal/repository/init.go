package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/models"
)

type Repositories struct {
	DomainRepository       DomainRepository
	CheckLogRepository     CheckLogRepository
	NotificationRepository NotificationRepository
}

func InitRepositories(monitorDB *gorm.DB) *Repositories {
	return &Repositories{
		DomainRepository:       NewDomainRepository(monitorDB),
		CheckLogRepository:     NewCheckLogRepository(monitorDB),
		NotificationRepository: NewNotificationRepository(monitorDB),
	}
}

// Deletes check logs older than 90 days. Installed as a SQL function so the
// retention window can be adjusted in the database without a redeploy.
const cleanupOldLogsFunction = `
CREATE OR REPLACE FUNCTION cleanup_old_logs() RETURNS void AS $$
BEGIN
    DELETE FROM check_logs WHERE checked_at < NOW() - INTERVAL '90 days';
END;
$$ LANGUAGE plpgsql;
`

func MigrateMonitorDB(dbConfig *config.MonitorDatabaseConfig, monitorDB *gorm.DB) error {
	db, err := monitorDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = monitorDB.AutoMigrate(
		&models.Domain{},
		&models.CheckLog{},
		&models.Notification{},
	)
	if err == nil {
		err = monitorDB.Exec(cleanupOldLogsFunction).Error
	}

	db.Close()

	db, _ = monitorDB.DB()
	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
