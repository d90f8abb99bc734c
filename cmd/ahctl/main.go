package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/cmd/internal/passphrase"
	"auctionhouse/config"
	"auctionhouse/core/state"
	"auctionhouse/crypto"
	native "auctionhouse/native/auctionhouse"
	"auctionhouse/observability/logging"
	"auctionhouse/observability/metrics"
	telemetry "auctionhouse/observability/otel"
	sdk "auctionhouse/sdk/auctionhouse"
	"auctionhouse/storage"
)

const defaultConfigPath = "./ahctl.toml"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ahctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usage()) }
	configPath := fs.String("config", envOr("AHCTL_CONFIG", defaultConfigPath), "path to the ahctl configuration")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}

	command, sub := rest[0], rest[1:]
	switch command {
	case "keygen":
		return runKeygen(sub, stdout, stderr)
	case "help":
		fmt.Fprintln(stdout, usage())
		return 0
	}

	handler, ok := commands[command]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		fmt.Fprintln(stderr, usage())
		return 1
	}
	env, err := openEnv(*configPath, stdout, stderr)
	if err != nil {
		return printError(stderr, err)
	}
	defer env.close()
	return handler(env, sub)
}

var commands = map[string]func(*env, []string) int{
	"address":       runAddress,
	"airdrop":       runAirdrop,
	"airdrop-token": runAirdropToken,
	"balance":       runBalance,
	"house":         runHouse,
	"escrow":        runEscrow,
	"sell":          runSell,
	"buy":           runBuy,
	"cancel":        runCancel,
	"execute-sale":  runExecuteSale,
	"receipt":       runReceipt,
	"serve":         runServe,
}

// env is everything a command needs once the configuration is loaded.
type env struct {
	ctx      context.Context
	cfg      *config.Config
	logger   *slog.Logger
	db       storage.Database
	ledger   *state.Ledger
	engine   *native.Engine
	metrics  *metrics.AuctionHouseMetrics
	pass     *passphrase.Source
	stdout   io.Writer
	stderr   io.Writer
	shutdown func(context.Context) error
}

func openEnv(configPath string, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(logging.Options{
		Service: "ahctl",
		Env:     cfg.Log.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  stderr,
	})
	if err != nil {
		return nil, err
	}

	e := &env{
		ctx:    context.Background(),
		cfg:    cfg,
		logger: logger,
		pass:   passphrase.NewSource(passphrase.DefaultEnvVar),
		stdout: stdout,
		stderr: stderr,
	}
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(e.ctx, telemetry.Config{
			ServiceName: "ahctl",
			Environment: cfg.Log.Env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		e.shutdown = shutdown
	}

	program, err := cfg.Program(native.ProgramID)
	if err != nil {
		e.close()
		return nil, err
	}
	db, err := cfg.OpenDatabase()
	if err != nil {
		e.close()
		return nil, err
	}
	e.db = db
	e.ledger = state.NewLedger(db, state.WithRent(cfg.RentParams()), state.WithLogger(logger))
	e.metrics = metrics.AuctionHouse()
	e.engine = native.NewEngine(e.ledger)
	e.engine.SetProgramID(program)
	e.engine.SetLogger(logger)
	e.engine.SetMetrics(e.metrics)
	e.engine.SetEmitter(metrics.EventCounter{Metrics: e.metrics})
	return e, nil
}

func (e *env) close() {
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warn("close database", slog.Any("error", err))
		}
	}
	if e.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.shutdown(ctx); err != nil {
			e.logger.Warn("flush telemetry", slog.Any("error", err))
		}
	}
}

func (e *env) client(receipts bool) *sdk.Client {
	if receipts {
		return sdk.New(e.engine, sdk.WithReceipts())
	}
	return sdk.New(e.engine)
}

// signer loads the keypair at path, or the operator keypair when empty.
func (e *env) signer(path string) (solana.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		path = e.cfg.KeypairPath
	}
	e.logger.Debug("loading signer", logging.MaskField("keypair", path))
	return crypto.LoadSigner(path, e.pass.Get)
}

func (e *env) printJSON(v interface{}) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return printError(e.stderr, err)
	}
	fmt.Fprintln(e.stdout, string(out))
	return 0
}

// printResult reports the events of a committed transaction.
func (e *env) printResult(res *native.Result) int {
	type event struct {
		Type       string            `json:"type"`
		Attributes map[string]string `json:"attributes,omitempty"`
	}
	out := struct {
		Events []event `json:"events"`
	}{Events: []event{}}
	if res != nil {
		for _, evt := range res.Events {
			out.Events = append(out.Events, event{Type: evt.Type, Attributes: evt.Attributes})
		}
	}
	return e.printJSON(out)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usage()) }
	return fs
}

func printError(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %s\n", err)
	return 1
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}

func parseKey(name, value string) (solana.PublicKey, error) {
	if err := requireFlag(name, value); err != nil {
		return solana.PublicKey{}, err
	}
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(value))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

func parseOptionalKey(name, value string) (solana.PublicKey, error) {
	if strings.TrimSpace(value) == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(name, value)
}

func envOr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

var errUnexpectedArgs = errors.New("unexpected positional arguments")

func usage() string {
	return strings.TrimSpace(`Usage:
  ahctl [--config path] <command> [flags]

Commands:
  keygen         Generate a keypair file or encrypted keystore
  address        Print the public key of a keypair
  airdrop        Credit lamports to an address on the local ledger
  airdrop-token  Credit tokens to the associated account of an owner
  balance        Show the lamport balance of an address
  house          create, show, update, delegate, update-delegate, withdraw-fee, withdraw-treasury
  escrow         deposit, withdraw, show
  sell           List tokens for sale
  buy            Bid on a listing or, with --public, on any holder of a mint
  cancel         Withdraw a listing or bid
  execute-sale   Settle a matching bid and listing
  receipt        Show a listing, bid or purchase receipt
  serve          Expose Prometheus metrics until interrupted`)
}
