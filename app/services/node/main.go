package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/fcoin/app/services/node/handlers"
	"github.com/ardanlabs/fcoin/foundation/blockchain/database"
	"github.com/ardanlabs/fcoin/foundation/blockchain/peer"
	"github.com/ardanlabs/fcoin/foundation/blockchain/signature"
	"github.com/ardanlabs/fcoin/foundation/blockchain/state"
	"github.com/ardanlabs/fcoin/foundation/blockchain/worker"
	"github.com/ardanlabs/fcoin/foundation/events"
	"github.com/ardanlabs/fcoin/foundation/logger"
	"github.com/ardanlabs/fcoin/foundation/nameservice"
	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Node struct {
			ListenHost     string   `conf:"default:0.0.0.0:7123"`
			KnownPeers     []string `conf:"help:seed peers to dial at startup"`
			KeyPath        string   `conf:"default:zblock/accounts/miner1.ecdsa"`
			DifficultyBits uint     `conf:"default:240"`
			QueueCapacity  int      `conf:"default:100"`
			Signatures     string   `conf:"default:secp256k1"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "FCOIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`   __                _       `)
	fmt.Println(`  / _| ___ ___  _  _(_)_ __  `)
	fmt.Println(` | |_ / __/ _ \| || | | '_ \ `)
	fmt.Println(` |  _| (_| (_) | || | | | | |`)
	fmt.Println(` |_|  \___\___/ \_,_|_|_| |_|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for identities.
	// The names come from the file names in the zblock/accounts folder.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the identities for documentation in the logs.
	for id, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "address", id.Address())
	}

	// =========================================================================
	// Blockchain Support

	// Need to load the private key file for the configured miner so the
	// identity can get credited with block rewards.
	privateKey, err := crypto.LoadECDSA(cfg.Node.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to load private key for node: %w", err)
	}

	signer, verifier, err := signature.New(cfg.Node.Signatures, privateKey)
	if err != nil {
		return fmt.Errorf("unable to construct signatures: %w", err)
	}

	// The seed list is the set of known nodes in the network so blocks
	// and transactions can be shared.
	knownPeers := make([]peer.Peer, len(cfg.Node.KnownPeers))
	for i, host := range cfg.Node.KnownPeers {
		knownPeers[i] = peer.New(host)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. For now, these raw messages are sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the blockchain node and manages the chain
	// and provides an API for application support.
	state, err := state.New(state.Config{
		Identity:      signer.Identity(),
		Host:          cfg.Node.ListenHost,
		KnownPeers:    knownPeers,
		Verifier:      verifier,
		Difficulty:    database.Difficulty(cfg.Node.DifficultyBits),
		QueueCapacity: cfg.Node.QueueCapacity,
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}

	log.Infow("startup", "status", "node identity", "address", signer.Identity().Address(), "signatures", cfg.Node.Signatures)

	// Peers connect to this listener to exchange blocks and transactions.
	listener, err := net.Listen("tcp", cfg.Node.ListenHost)
	if err != nil {
		return fmt.Errorf("unable to listen for peers: %w", err)
	}

	// The worker package implements the different workflows such as mining,
	// peer sessions, and seed dialing. The worker will register itself with
	// the state.
	worker.Run(state, listener, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    state,
		NS:       ns,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		state.Shutdown()
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Stop mining, close the peer sessions and the peer listener.
		log.Infow("shutdown", "status", "shutdown node")
		state.Shutdown()

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
