// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/chairs/models"
)

// Store 对局记录存储接口。两个实现：GORM 与原生 database/sql。
type Store interface {
	SaveMatch(record *models.MatchRecord) error
	RecentMatches(limit int) ([]models.MatchRecord, error)
	TopWinners(limit int) ([]models.WinnerCount, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
