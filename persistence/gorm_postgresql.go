// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/chairs/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormMatch{}, &models.GormWinnerTally{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveMatch 在同一事务中写入对局记录并累加获胜计数
func (p *GormPostgreSQL) SaveMatch(record *models.MatchRecord) error {
	winners, err := json.Marshal(record.Winners)
	if err != nil {
		return err
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		match := models.GormMatch{
			RoomID:      record.RoomID,
			Winners:     winners,
			Reason:      record.Reason,
			PlayerCount: record.PlayerCount,
			SeatCount:   record.SeatCount,
			Duration:    int(record.Duration.Seconds()),
		}
		if err := tx.Create(&match).Error; err != nil {
			return err
		}

		for _, w := range record.Winners {
			var tally models.GormWinnerTally
			result := tx.Where("player_id = ?", w.PlayerID).First(&tally)
			if result.Error == gorm.ErrRecordNotFound {
				tally = models.GormWinnerTally{PlayerID: w.PlayerID, Name: w.Name, Wins: 1}
				if err := tx.Create(&tally).Error; err != nil {
					return err
				}
				continue
			} else if result.Error != nil {
				return result.Error
			}

			if err := tx.Model(&tally).Updates(map[string]interface{}{
				"name": w.Name,
				"wins": gorm.Expr("wins + 1"),
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RecentMatches 按结束时间倒序返回最近的对局
func (p *GormPostgreSQL) RecentMatches(limit int) ([]models.MatchRecord, error) {
	var rows []models.GormMatch
	if err := p.db.Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]models.MatchRecord, 0, len(rows))
	for _, row := range rows {
		var winners []models.WinnerInfo
		if len(row.Winners) > 0 {
			if err := json.Unmarshal(row.Winners, &winners); err != nil {
				return nil, err
			}
		}
		records = append(records, models.MatchRecord{
			RoomID:      row.RoomID,
			Winners:     winners,
			Reason:      row.Reason,
			PlayerCount: row.PlayerCount,
			SeatCount:   row.SeatCount,
			Duration:    time.Duration(row.Duration) * time.Second,
			FinishedAt:  row.CreatedAt,
		})
	}
	return records, nil
}

// TopWinners 按获胜次数倒序返回排行榜
func (p *GormPostgreSQL) TopWinners(limit int) ([]models.WinnerCount, error) {
	var tallies []models.GormWinnerTally
	if err := p.db.Order("wins desc").Limit(limit).Find(&tallies).Error; err != nil {
		return nil, err
	}

	out := make([]models.WinnerCount, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, models.WinnerCount{PlayerID: t.PlayerID, Name: t.Name, Wins: t.Wins})
	}
	return out, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
