package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/medcustody/ledgerbridge/pkg/applog"
	"github.com/medcustody/ledgerbridge/pkg/bridge"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb"
	"github.com/medcustody/ledgerbridge/pkg/bridgedb/stor"
	"github.com/medcustody/ledgerbridge/pkg/config"
	"github.com/medcustody/ledgerbridge/pkg/ledgerclient"
	"github.com/medcustody/ledgerbridge/pkg/lock"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bridged",
	Short: "Run the cross-ledger bridge API server",
	Long:  `bridged moves custody of medical records from the permissioned source ledger to a destination public chain under multi-party signoff.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := config.MustLoadFromDotenv()

		if err := applog.Setup(os.Stdout, c.GetKeyWithDefault("BRIDGED_LOG_LEVEL", "info")); err != nil {
			log.Fatalf("Unable to configure logging: %s", err)
		}

		db := bridgedb.MustConnectToDB()
		if err := bridgedb.RunMigrations(db); err != nil {
			log.Fatalf("Unable to run migrations: %s", err)
		}

		stors := stor.NewGormStors(db)
		locker := lock.NewIdLocker()

		client := ledgerclient.NewHTTPClient(
			c.MustGetKey("BRIDGED_LEDGER_URL"),
			c.GetKeyWithDefault("BRIDGED_LEDGER_APIKEY", ""))

		submitBudget := time.Duration(c.GetIntKeyWithDefault("BRIDGED_SUBMIT_BUDGET_MS", 3000)) * time.Millisecond
		requiredSignatures := c.GetIntKeyWithDefault("BRIDGED_REQUIRED_SIGNATURES", 2)

		submitter := bridge.NewSubmitter(stors.TransferStor, client, locker,
			c.GetIntKeyWithDefault("BRIDGED_SUBMIT_RETRIES", 3), time.Second)
		quorum := bridge.NewQuorumVerifier(stors.SignerStor)
		coordinator := bridge.NewCoordinator(stors.TransferStor, client, quorum, submitter, locker,
			submitBudget, requiredSignatures)
		rollbackEngine := bridge.NewRollbackEngine(stors.TransferStor, client, locker)

		reconciler := bridge.NewReconciler(
			bridge.WithTransferStor(stors.TransferStor),
			bridge.WithLedgerClient(client),
			bridge.WithLocker(locker),
			bridge.WithPollInterval(time.Duration(c.GetIntKeyWithDefault("BRIDGED_RECONCILE_INTERVAL_SEC", 20))*time.Second),
			bridge.WithPendingAge(time.Duration(c.GetIntKeyWithDefault("BRIDGED_RECONCILE_AGE_SEC", 10))*time.Second))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go reconciler.Run(ctx)

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(middleware.Recover())

		setupRoutes(e, RouteOpts{
			stors:       stors,
			coordinator: coordinator,
			rollback:    rollbackEngine,
		})

		go shutdownOnSignal(e, cancel)

		if err := e.Start(":" + c.GetKeyWithDefault("BRIDGED_PORT", "1360")); err != nil {
			log.Fatalf("Unable to start server: %s", err)
		}
	},
}

func shutdownOnSignal(e *echo.Echo, cancel context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Got %s signal, shutting down...", sig)

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown failed: %s", err)
	}

	os.Exit(0)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
