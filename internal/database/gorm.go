package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fileRow is the GORM mapping of the files table.
type fileRow struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Name       string    `gorm:"not null"`
	Type       string    `gorm:"not null"`
	Size       int64     `gorm:"not null"`
	Data       string    `gorm:"type:longtext;not null"`
	UploadDate time.Time `gorm:"not null"`
	Stored     bool      `gorm:"not null"`
	UpdatedAt  time.Time
}

func (fileRow) TableName() string { return "files" }

func (r *fileRow) toRecord() *models.FileRecord {
	return &models.FileRecord{
		ID:         r.ID,
		Name:       r.Name,
		MediaType:  r.Type,
		Size:       r.Size,
		Data:       r.Data,
		UploadedAt: r.UploadDate,
		Stored:     r.Stored,
		UpdatedAt:  r.UpdatedAt,
	}
}

// GormDB is a files backend on top of GORM, used for the embedded SQLite
// store and for MySQL.
type GormDB struct {
	db *gorm.DB
}

// NewGormDB opens driver ("sqlite" or "mysql") at dsn and migrates the files table.
func NewGormDB(driver, dsn string, log *zap.Logger, logLevel string) (*GormDB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if err := ensureDir(dsn); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrUnavailable, driver)
	}

	gLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := db.AutoMigrate(&fileRow{}); err != nil {
		return nil, requestErr("migrate", err)
	}

	log.Info("connected to database", zap.String("driver", driver))
	return &GormDB{db: db}, nil
}

func (g *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (g *GormDB) SelectFiles(ctx context.Context) ([]*models.FileRecord, error) {
	var rows []fileRow
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, requestErr("select files", err)
	}

	files := make([]*models.FileRecord, 0, len(rows))
	for i := range rows {
		files = append(files, rows[i].toRecord())
	}
	return files, nil
}

func (g *GormDB) InsertFile(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error) {
	row := fileRow{
		ID:         uuid.New().String(),
		Name:       file.Name,
		Type:       file.MediaType,
		Size:       file.Size,
		Data:       file.Data,
		UploadDate: file.UploadedAt,
		Stored:     file.Stored,
	}
	if row.UploadDate.IsZero() {
		row.UploadDate = time.Now().UTC()
	}

	if err := g.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, requestErr("insert file", err)
	}
	return row.toRecord(), nil
}

func (g *GormDB) UpdateStored(ctx context.Context, fileID string, stored bool) (*models.FileRecord, error) {
	var row fileRow
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "id = ?", fileID).Error; err != nil {
			return err
		}
		err := tx.Model(&fileRow{}).Where("id = ?", fileID).Updates(map[string]any{
			"stored":     stored,
			"updated_at": time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}
		// re-read so the caller sees what the backend actually holds
		return tx.First(&row, "id = ?", fileID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, requestErr("update stored", err)
	}
	return row.toRecord(), nil
}

// DeleteFile removes an unstored row; see PostgresDB.DeleteFile.
func (g *GormDB) DeleteFile(ctx context.Context, fileID string) error {
	result := g.db.WithContext(ctx).Where("id = ? AND stored = ?", fileID, false).Delete(&fileRow{})
	if result.Error != nil {
		return requestErr("delete file", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var row fileRow
	err := g.db.WithContext(ctx).Select("stored").First(&row, "id = ?", fileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return requestErr("delete file", err)
	}
	return ErrStored
}

func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// toGormLogLevel maps the application log level to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
