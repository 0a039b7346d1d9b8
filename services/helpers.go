package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/tournament-forecast/repositories"
)

// runInTx выполняет fn в транзакции. При db == nil (тесты с фейковыми репозиториями)
// fn вызывается с nil-исполнителем, и репозитории работают без транзакции.
func runInTx(ctx context.Context, db *sql.DB, fn func(exec repositories.SQLExecutor) error) (err error) {
	if db == nil {
		return fn(nil)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", err, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}
