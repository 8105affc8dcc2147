package stor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/medcustody/ledgerbridge/pkg/bridgedb"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type NullLogger struct{}

func (l *NullLogger) Printf(_ string, _ ...interface{}) {
	// do nothing
}

// newTestDB opens a per-test in-memory sqlite database with the bridge schema.
func newTestDB(t *testing.T) *gorm.DB {
	gormLogger := logger.New(&NullLogger{},
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	require.NoErrorf(t, err, "gorm.Open failed: %s", err)

	sqlitedb, err := db.DB()
	require.NoErrorf(t, err, "db.DB() failed: %s", err)
	sqlitedb.SetMaxOpenConns(1)

	err = bridgedb.RunMigrations(db)
	require.NoErrorf(t, err, "Migration failed with: %s", err)

	t.Cleanup(func() {
		_ = sqlitedb.Close()
	})

	return db
}

func newPendingTransfer(t *testing.T, transferStor TransferStor, recordUUIDs ...string) *model.Transfer {
	transfer := &model.Transfer{
		DestinationChain:   "ethereum",
		Recipient:          "0x" + strings.Repeat("a", 40),
		RequiredSignatures: 2,
	}

	for _, recordUUID := range recordUUIDs {
		transfer.Records = append(transfer.Records, model.TransferRecord{RecordUUID: recordUUID})
	}

	created, err := transferStor.CreateTransfer(transfer)
	require.NoErrorf(t, err, "CreateTransfer failed: %s", err)

	return created
}
