package webapi

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/medcustody/ledgerbridge/pkg/bridge"
	"github.com/medcustody/ledgerbridge/pkg/bridge/webapi/apimiddleware"
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

type webTestCase struct {
	*testing.T

	e      *echo.Echo
	stors  *stor.Stors
	client *ledgerclient.MockClient
	user   *model.User
}

// newWebTestCase stands up the full request path the daemon serves: api key
// auth, rate limits and the bridge controller, backed by an in-memory
// database and a programmable ledger client.
func newWebTestCase(t *testing.T) *webTestCase {
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

	for _, signerID := range []string{"signer-1", "signer-2"} {
		_, err = stors.SignerStor.CreateSigner(&model.Signer{SignerID: signerID, Name: signerID, Active: true})
		require.NoError(t, err)
	}

	client := ledgerclient.NewMockClient()
	locker := lock.NewIdLocker()
	submitter := bridge.NewSubmitter(stors.TransferStor, client, locker, 3, time.Millisecond)
	quorum := bridge.NewQuorumVerifier(stors.SignerStor)
	coordinator := bridge.NewCoordinator(stors.TransferStor, client, quorum, submitter, locker, time.Second, 2)
	rollback := bridge.NewRollbackEngine(stors.TransferStor, client, locker)

	e := echo.New()
	g := e.Group("/bridge")
	g.Use(apimiddleware.APIKeyAuth(apimiddleware.APIKeyConfig{
		Keyname:         "apikey",
		GetUserByAPIKey: stors.UserStor.GetUserByAPIToken,
	}))

	transferLimit := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Scope:   "transfer",
		Limit:   3,
		Window:  time.Minute,
		Windows: stors.RateWindowStor,
	})

	rollbackLimit := apimiddleware.RateLimit(apimiddleware.RateLimitConfig{
		Scope:   "rollback",
		Limit:   3,
		Window:  time.Hour,
		Windows: stors.RateWindowStor,
	})

	controller := NewBridgeController(coordinator, rollback)
	g.POST("/transfer", controller.CreateTransfer, transferLimit)
	g.POST("/rollback/:transferId", controller.RollbackTransfer, rollbackLimit)
	g.GET("/history", controller.GetHistory)
	g.GET("/transfer/:transferId", controller.GetTransfer)

	return &webTestCase{
		T:      t,
		e:      e,
		stors:  stors,
		client: client,
		user:   user,
	}
}

func (tc *webTestCase) do(method, target, body string) *httptest.ResponseRecorder {
	return tc.doWithToken(method, target, body, "token-demo")
}

func (tc *webTestCase) doWithToken(method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("apikey", token)
	}

	rec := httptest.NewRecorder()
	tc.e.ServeHTTP(rec, req)
	return rec
}

func (tc *webTestCase) createCompletedTransfer() *model.Transfer {
	transfer, err := tc.stors.TransferStor.CreateTransfer(&model.Transfer{
		DestinationChain:   "ethereum",
		Recipient:          validRecipient,
		RequiredSignatures: 2,
		OwnerID:            tc.user.ID,
		Records:            []model.TransferRecord{{RecordUUID: "11111111-2222-3333-4444-555555555555"}},
	})
	require.NoError(tc.T, err)

	completed, err := tc.stors.TransferStor.MarkTransferCompleted(transfer.UUID, "tx-1", "btx-1")
	require.NoError(tc.T, err)
	return completed
}
