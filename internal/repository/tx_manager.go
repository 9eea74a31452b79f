package repository

import "context"

// トランザクション内で使う約束（商品の書き込み + 監査ログ）
type TxRepos interface {
	Products() ProductRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
