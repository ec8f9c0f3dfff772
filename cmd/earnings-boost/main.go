// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/DIMO-Network/earnings-boost/admin"
	"github.com/DIMO-Network/earnings-boost/api"
	"github.com/DIMO-Network/earnings-boost/api/node"
	"github.com/DIMO-Network/earnings-boost/boost"
	"github.com/DIMO-Network/earnings-boost/eventdb"
	"github.com/DIMO-Network/earnings-boost/events"
	"github.com/DIMO-Network/earnings-boost/health"
	"github.com/DIMO-Network/earnings-boost/kv"
	"github.com/DIMO-Network/earnings-boost/log"
	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/metrics"
	"github.com/DIMO-Network/earnings-boost/staking"
	"github.com/DIMO-Network/earnings-boost/state"
	"github.com/DIMO-Network/earnings-boost/tokens"
	"github.com/DIMO-Network/earnings-boost/vehicles"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "earnings-boost",
		Usage:     "DIMO staking registry node",
		Copyright: "2024 DIMO Foundation",
		Flags: []cli.Flag{
			dataDirFlag,
			levelsFileFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "earnings-boost node for test & dev, token and vehicle mutation endpoints enabled",
				Flags: []cli.Flag{
					dataDirFlag,
					levelsFileFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiLogsLimitFlag,
					enableAPILogsFlag,
					pprofFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
					enableAdminFlag,
					adminAddrFlag,
					persistFlag,
					clockStartFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closer := startMetricsServer(ctx, metrics.HTTPHandler())
		logger.Info("metrics server started", "url", url)
		defer closer()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closer, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel)
		if err != nil {
			fatal(fmt.Sprintf("start admin server: %v", err))
		}
		logger.Info("admin server started", "url", url)
		defer closer()
	}

	dataDir := makeDataDir(ctx)

	mainDB := openMainDB(dataDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	logDB := openEventDB(dataDir)
	defer func() { logger.Info("closing event database..."); logDB.Close() }()

	go checkClockOffset()

	return runNode(ctx, mainDB, logDB, &staking.SystemClock{}, nil, dataDir)
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closer := startMetricsServer(ctx, metrics.HTTPHandler())
		logger.Info("metrics server started", "url", url)
		defer closer()
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closer, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel)
		if err != nil {
			fatal(fmt.Sprintf("start admin server: %v", err))
		}
		logger.Info("admin server started", "url", url)
		defer closer()
	}

	var mainDB *lvldb.LevelDB
	var logDB *eventdb.EventDB
	var dataDir string

	if ctx.Bool(persistFlag.Name) {
		dataDir = makeDataDir(ctx)
		mainDB = openMainDB(dataDir)
		logDB = openEventDB(dataDir)
	} else {
		dataDir = "Memory"
		mainDB = openMemMainDB()
		logDB = openMemEventDB()
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); logDB.Close() }()

	var clock staking.Clock = &staking.SystemClock{}
	var manual *staking.ManualClock
	if start := ctx.Uint64(clockStartFlag.Name); start > 0 {
		manual = staking.NewManualClock(start)
		clock = manual
	}

	return runNode(ctx, mainDB, logDB, clock, &soloConfig{manual: manual}, dataDir)
}

type soloConfig struct {
	manual *staking.ManualClock
}

// runNode assembles the engine and API on top of the opened databases and
// serves until an exit signal arrives.
func runNode(
	ctx *cli.Context,
	mainDB *lvldb.LevelDB,
	logDB *eventdb.EventDB,
	clock staking.Clock,
	solo *soloConfig,
	dataDir string,
) error {
	// registry state lives in its own key namespace so future node
	// metadata can share the database
	st := state.New(kv.Bucket("state-").NewStore(mainDB))
	st.NewCheckpoint()
	defer func() {
		if _, hits, misses, rate := st.CacheStats(); hits+misses > 0 {
			logger.Info("state cache stats", "hits", hits, "misses", misses, "hitrate", rate)
		}
	}()

	ledger := tokens.New(tokens.Address, st)
	fleet := vehicles.New(vehicles.Address, st)
	table := loadLevelTable(ctx)

	newestSeq, err := logDB.NewestSeq()
	if err != nil {
		fatal(fmt.Sprintf("read newest event seq: %v", err))
	}
	emitter := events.NewEmitter(newestSeq + 1)

	hlth := health.New()
	hlth.JournalOpen(true)
	emitter.Subscribe(func(batch []*events.Event) {
		if err := logDB.Write(batch); err != nil {
			logger.Error("write event journal", "err", err)
			hlth.JournalOpen(false)
			return
		}
		hlth.NewEvent(batch[len(batch)-1].Seq)
	})

	engine := staking.New(staking.Address, st, table, ledger.Caller(staking.Address), fleet, clock, emitter)
	hlth.EngineReady(true)

	var devBackend *api.DevBackend
	soloMode := solo != nil
	if soloMode {
		devBackend = &api.DevBackend{
			Ledger: ledger,
			Fleet:  fleet,
			Clock:  solo.manual,
		}
		if err := seedDevAccounts(engine, ledger, fleet); err != nil {
			fatal(fmt.Sprintf("seed dev accounts: %v", err))
		}
	}

	apiHandler, apiCloser := api.New(engine, table, logDB, emitter, hlth, devBackend, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		NodeInfo:        node.Info{Name: "earnings-boost", Version: fullVersion()},
		PprofOn:         ctx.Bool(pprofFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
		SoloMode:        soloMode,
	})
	defer func() { logger.Info("closing subscriptions..."); apiCloser() }()

	apiURL, srvCloser := startAPIServer(ctx, apiHandler)
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	printStartupMessage(dataDir, apiURL, newestSeq, soloMode)
	if soloMode {
		printDevAccounts()
	}

	<-handleExitSignal().Done()
	return nil
}

// solo mode ships ten pre-funded accounts and a handful of minted vehicles so
// the staking endpoints work out of the box.
var devBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))

func devAccounts() []boost.Address {
	accounts := make([]boost.Address, 0, 10)
	for i := 1; i <= 10; i++ {
		accounts = append(accounts, boost.BytesToAddress([]byte(fmt.Sprintf("solo-account-%02d", i))))
	}
	return accounts
}

func seedDevAccounts(engine *staking.Staking, ledger *tokens.Tokens, fleet *vehicles.Registry) error {
	// persisted solo data is already seeded
	if ok, err := fleet.Exists(big.NewInt(1)); err != nil {
		return err
	} else if ok {
		return nil
	}

	return engine.Mutate(func() error {
		vehicleID := big.NewInt(1)
		for _, addr := range devAccounts() {
			if err := ledger.Mint(addr, devBalance); err != nil {
				return err
			}
			if err := ledger.Approve(addr, staking.Address, devBalance); err != nil {
				return err
			}
			if err := fleet.Mint(addr, vehicleID); err != nil {
				return err
			}
			vehicleID = new(big.Int).Add(vehicleID, big.NewInt(1))
		}
		return nil
	})
}

func printDevAccounts() {
	tableHead := `
┌────────────────────────────────────────────┬─────────────┐
│                   Address                  │  Vehicle ID │`
	tableContent := `
├────────────────────────────────────────────┼─────────────┤
│ %v │ %11d │`
	tableEnd := `
└────────────────────────────────────────────┴─────────────┘`

	info := ""
	for i, a := range devAccounts() {
		info += fmt.Sprintf(tableContent, a, i+1)
	}
	fmt.Print(tableHead + info + tableEnd + "\r\n")
}
