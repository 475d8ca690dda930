package db

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/RobLun72/HouseProject-sub002/pkg/logger"
)

func TestTxRunner_TransactionalRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	runner, err := NewTxRunner(db, true, nil)
	require.NoError(t, err)

	err = runner.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "doomed"}).Error; err != nil {
			return err
		}
		return errors.New("mutation failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&testModel{}).Where("name = ?", "doomed").Count(&count).Error)
	require.Zero(t, count, "rollback must leave no partial effect")
}

func TestTxRunner_NonTransactionalLogsReducedGuarantee(t *testing.T) {
	db := newTestDB(t)
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	runner, err := NewTxRunner(db, false, logg)
	require.NoError(t, err)
	require.False(t, runner.Transactional())

	err = runner.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "direct"}).Error; err != nil {
			return err
		}
		return errors.New("late failure")
	})
	require.Error(t, err)

	// Without a transaction the earlier insert survives the failure.
	var count int64
	require.NoError(t, db.Model(&testModel{}).Where("name = ?", "direct").Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.Contains(t, buf.String(), "executing without transaction")
}

func TestTxRunner_RequiresConnection(t *testing.T) {
	_, err := NewTxRunner(nil, true, nil)
	require.Error(t, err)
}

func TestTxRunner_IssuesBeginCommitAgainstPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	runner, err := NewTxRunner(conn, true, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO houses").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = runner.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO houses (name) VALUES (?)", "A").Error
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_IssuesRollbackAgainstPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	runner, err := NewTxRunner(conn, true, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO houses").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err = runner.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO houses (name) VALUES (?)", "A").Error
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
