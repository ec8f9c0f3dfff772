// Copyright (c) 2024 The earnings-boost developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/DIMO-Network/earnings-boost/eventdb"
	"github.com/DIMO-Network/earnings-boost/log"
	"github.com/DIMO-Network/earnings-boost/lvldb"
	"github.com/DIMO-Network/earnings-boost/staking/levels"
)

func fatal(args ...interface{}) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

// initLogger wires the root logger to stderr, JSON or terminal format
// depending on the flag and whether stderr is a tty. The returned LevelVar
// feeds the admin loglevel endpoint.
func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name)))

	var level slog.LevelVar
	level.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))

	return &level
}

// copy from go-ethereum
func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.dimo.earnings-boost")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.dimo.earnings-boost")
		default:
			return filepath.Join(home, ".org.dimo.earnings-boost")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

func openMainDB(dataDir string) *lvldb.LevelDB {
	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database at [%v]: %v", dir, err))
	}
	return db
}

func openEventDB(dataDir string) *eventdb.EventDB {
	path := filepath.Join(dataDir, "boostlogs.db")
	db, err := eventdb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open event database at [%v]: %v", path, err))
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open main database: %v", err))
	}
	return db
}

func openMemEventDB() *eventdb.EventDB {
	db, err := eventdb.NewMem()
	if err != nil {
		fatal(fmt.Sprintf("open event database: %v", err))
	}
	return db
}

func loadLevelTable(ctx *cli.Context) *levels.Table {
	path := ctx.String(levelsFileFlag.Name)
	if path == "" {
		return levels.Default()
	}
	file, err := os.Open(path)
	if err != nil {
		fatal(fmt.Sprintf("open levels file [%v]: %v", path, err))
	}
	defer file.Close()

	table, err := levels.FromYAML(file)
	if err != nil {
		fatal(fmt.Sprintf("load levels file [%v]: %v", path, err))
	}
	return table
}

func startAPIServer(ctx *cli.Context, handler http.HandlerFunc) (string, func()) {
	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen API addr [%v]: %v", addr, err))
	}
	var h http.Handler = handler
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		h = http.TimeoutHandler(h, time.Duration(timeout)*time.Millisecond, "request timeout")
	}
	url := "http://" + listener.Addr().String() + "/"
	return url, serveHTTP(listener, h, "API")
}

func startMetricsServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	addr := ctx.String(metricsAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen metrics addr [%v]: %v", addr, err))
	}
	url := "http://" + listener.Addr().String() + "/metrics"
	return url, serveHTTP(listener, handler, "metrics")
}

// serveHTTP serves until the returned closer runs.
func serveHTTP(listener net.Listener, handler http.Handler, name string) func() {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	var group errgroup.Group
	group.Go(func() error {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	return func() {
		srv.Close()
		if err := group.Wait(); err != nil {
			logger.Warn("server stopped with error", "server", name, "err", err)
		}
	}
}

// checkClockOffset warns when the host clock drifts from NTP. Lock expiry
// arithmetic rides on wall time, so a skewed clock releases stakes early or
// late.
func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > time.Second || resp.ClockOffset < -time.Second {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(dataDir, apiURL string, newestSeq uint64, soloMode bool) {
	name := "Earnings Boost"
	if soloMode {
		name = "Earnings Boost solo"
	}
	fmt.Printf(`Starting %v
    Instance dir [ %v ]
    Last log seq [ %v ]
    API portal   [ %v ]
`,
		makeInstanceName(name),
		dataDir,
		newestSeq,
		apiURL)
}

// makeInstanceName builds the banner identity string, e.g.
// "Earnings Boost/v1.2.0-dev/linux-amd64/go1.22.1".
func makeInstanceName(name string) string {
	return fmt.Sprintf("%s/v%s/%s-%s/%s", name, fullVersion(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}
