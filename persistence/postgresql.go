// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/chairs/models"
)

// PostgreSQL 原生 database/sql 实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS matches (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(255) NOT NULL,
            winners JSONB NOT NULL,
            reason VARCHAR(100) NOT NULL,
            player_count INT NOT NULL DEFAULT 0,
            seat_count INT NOT NULL DEFAULT 0,
            duration_seconds INT NOT NULL DEFAULT 0,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS winner_tallies (
            player_id VARCHAR(255) PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            wins INT NOT NULL DEFAULT 0
        )
    `)
	return err
}

// SaveMatch 在同一事务中写入对局记录并累加获胜计数
func (p *PostgreSQL) SaveMatch(record *models.MatchRecord) error {
	winners, err := json.Marshal(record.Winners)
	if err != nil {
		return err
	}

	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO matches (room_id, winners, reason, player_count, seat_count, duration_seconds, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, record.RoomID, winners, record.Reason, record.PlayerCount, record.SeatCount,
		int(record.Duration.Seconds()), record.FinishedAt)
	if err != nil {
		return err
	}

	for _, w := range record.Winners {
		_, err = tx.Exec(`
            INSERT INTO winner_tallies (player_id, name, wins)
            VALUES ($1, $2, 1)
            ON CONFLICT (player_id)
            DO UPDATE SET name = EXCLUDED.name, wins = winner_tallies.wins + 1
        `, w.PlayerID, w.Name)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentMatches 按结束时间倒序返回最近的对局
func (p *PostgreSQL) RecentMatches(limit int) ([]models.MatchRecord, error) {
	rows, err := p.db.Query(`
        SELECT room_id, winners, reason, player_count, seat_count, duration_seconds, created_at
        FROM matches
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var (
			record     models.MatchRecord
			winnersRaw []byte
			seconds    int
		)
		if err := rows.Scan(&record.RoomID, &winnersRaw, &record.Reason,
			&record.PlayerCount, &record.SeatCount, &seconds, &record.FinishedAt); err != nil {
			return nil, err
		}
		if len(winnersRaw) > 0 {
			if err := json.Unmarshal(winnersRaw, &record.Winners); err != nil {
				return nil, err
			}
		}
		record.Duration = time.Duration(seconds) * time.Second
		records = append(records, record)
	}
	return records, rows.Err()
}

// TopWinners 按获胜次数倒序返回排行榜
func (p *PostgreSQL) TopWinners(limit int) ([]models.WinnerCount, error) {
	rows, err := p.db.Query(`
        SELECT player_id, name, wins
        FROM winner_tallies
        ORDER BY wins DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WinnerCount
	for rows.Next() {
		var w models.WinnerCount
		if err := rows.Scan(&w.PlayerID, &w.Name, &w.Wins); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
