package logger

import "go.uber.org/zap"

// New は本番なら JSON、それ以外は開発向けの zap ロガー。
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
