package bridge

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var validRecipient = "0x" + strings.Repeat("a", 40)

type NullLogger struct{}

func (l *NullLogger) Printf(_ string, _ ...interface{}) {
	// do nothing
}

type bridgeTestCase struct {
	*testing.T

	stors  *stor.Stors
	client *ledgerclient.MockClient
	locker *lock.IdLocker
	user   *model.User
}

func newBridgeTestCase(t *testing.T) *bridgeTestCase {
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

	stors := stor.NewGormStors(db)

	user, err := stors.UserStor.CreateUser(&model.User{Name: "dr demo", Email: "demo@example.com", APIToken: "token-demo"})
	require.NoError(t, err)

	for _, signerID := range []string{"signer-1", "signer-2", "signer-3"} {
		_, err = stors.SignerStor.CreateSigner(&model.Signer{SignerID: signerID, Name: signerID, Active: true})
		require.NoError(t, err)
	}
	_, err = stors.SignerStor.CreateSigner(&model.Signer{SignerID: "signer-revoked", Name: "revoked", Active: false})
	require.NoError(t, err)

	return &bridgeTestCase{
		T:      t,
		stors:  stors,
		client: ledgerclient.NewMockClient(),
		locker: lock.NewIdLocker(),
		user:   user,
	}
}

func (tc *bridgeTestCase) newSubmitter(maxAttempts int) *Submitter {
	return NewSubmitter(tc.stors.TransferStor, tc.client, tc.locker, maxAttempts, time.Millisecond)
}

func (tc *bridgeTestCase) newCoordinator(submitBudget time.Duration) *Coordinator {
	quorum := NewQuorumVerifier(tc.stors.SignerStor)
	return NewCoordinator(tc.stors.TransferStor, tc.client, quorum, tc.newSubmitter(3), tc.locker, submitBudget, 2)
}

func (tc *bridgeTestCase) newRollbackEngine() *RollbackEngine {
	return NewRollbackEngine(tc.stors.TransferStor, tc.client, tc.locker)
}

func (tc *bridgeTestCase) createPendingTransfer(recordUUIDs ...string) *model.Transfer {
	transfer := &model.Transfer{
		DestinationChain:   "ethereum",
		Recipient:          validRecipient,
		RequiredSignatures: 2,
		OwnerID:            tc.user.ID,
	}

	for _, recordUUID := range recordUUIDs {
		transfer.Records = append(transfer.Records, model.TransferRecord{RecordUUID: recordUUID})
	}

	created, err := tc.stors.TransferStor.CreateTransfer(transfer)
	require.NoErrorf(tc.T, err, "CreateTransfer failed: %s", err)

	return created
}

func newRecordUUID(t *testing.T) string {
	recordUUID, err := uuid.GenerateUUID()
	require.NoError(t, err)
	return recordUUID
}

func twoSignatures() []SignatureInput {
	return []SignatureInput{
		{SignerID: "signer-1", Signature: "c2lnLTE="},
		{SignerID: "signer-2", Signature: "c2lnLTI="},
	}
}
