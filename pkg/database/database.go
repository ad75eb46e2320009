package database

import (
	"fmt"
	"log"

	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 同步引擎自有的表结构。课程内容表（lessons/quizzes/questions）
// 由内容编辑系统写入，这里只为本地部署建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Lesson{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.Completion{},
		&model.FavoriteQuestion{},
		&model.CohortStats{},
	)
}
