package logger

import (
	"go.uber.org/zap"
)

// Log 默认是空操作日志器，测试无需初始化；main 调用 Init 切换到生产配置
var Log = zap.NewNop().Sugar()

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync 刷新缓冲区，main 退出前调用
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
