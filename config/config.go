package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MonitorAddress string `mapstructure:"monitor_address"`
	// 会话空闲超过该秒数后由定时器强制断开
	IdleTimeoutSec int `mapstructure:"idle_timeout_sec"`
	SweepPeriodSec int `mapstructure:"sweep_period_sec"`
}

type DatabaseConfig struct {
	// 对局记录是可选的，关闭后服务器完全在内存中运行
	Enabled  bool           `mapstructure:"enabled"`
	Driver   string         `mapstructure:"driver"` // "gorm" 或 "sql"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GameConfig 抢座位玩法的规则参数
type GameConfig struct {
	MapWidth        float64 `mapstructure:"map_width"`
	MapHeight       float64 `mapstructure:"map_height"`
	SpawnX          float64 `mapstructure:"spawn_x"`
	SpawnY          float64 `mapstructure:"spawn_y"`
	PlayerRadius    float64 `mapstructure:"player_radius"`
	SeatMargin      float64 `mapstructure:"seat_margin"`
	ClaimRadius     float64 `mapstructure:"claim_radius"`
	MinPlayers      int     `mapstructure:"min_players"`
	AttemptsPerSeat int     `mapstructure:"attempts_per_seat"`
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.monitor_address", ":9100")
	viper.SetDefault("server.idle_timeout_sec", 120)
	viper.SetDefault("server.sweep_period_sec", 30)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.user", "postgres")
	viper.SetDefault("database.postgres.password", "")
	viper.SetDefault("database.postgres.dbname", "chairs")

	// 规则数值与原版保持一致
	viper.SetDefault("game.map_width", 1600.0)
	viper.SetDefault("game.map_height", 1200.0)
	viper.SetDefault("game.spawn_x", 50.0)
	viper.SetDefault("game.spawn_y", 50.0)
	viper.SetDefault("game.player_radius", 15.0)
	viper.SetDefault("game.seat_margin", 15.0)
	viper.SetDefault("game.claim_radius", 20.0)
	viper.SetDefault("game.min_players", 2)
	viper.SetDefault("game.attempts_per_seat", 10)
}

// LoadConfig 读取 config.yaml，缺失的字段回落到默认值；
// 配置文件整体缺失不视为错误，直接使用默认配置运行。
func LoadConfig(path string) (config *Config, err error) {
	setDefaults()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
