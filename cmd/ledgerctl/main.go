// Command ledgerctl drives the sales backend from a terminal: sign in, read
// and export customer ledgers, quote and place orders, record and reverse
// payments, and print the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/salesledger/internal/client"
	"github.com/xenking/salesledger/internal/domain/dashboard"
	"github.com/xenking/salesledger/internal/domain/ledger"
	"github.com/xenking/salesledger/internal/domain/order"
	"github.com/xenking/salesledger/internal/domain/payment"
	"github.com/xenking/salesledger/internal/session"
	"github.com/xenking/salesledger/internal/state"
)

const usage = `usage: ledgerctl [flags] <command> [args]

commands:
  login      -email E [-password P]      sign in (password falls back to LEDGER_PASSWORD)
  logout                                 forget the stored session
  whoami                                 print the signed-in user and their routes
  ledger     <customer> [flags]          print or export a customer ledger
  quote      [flags] <[product:]qty@price>...
  order      create -customer N <product:qty@price>... | delete|restore -customer N <order>
  pay        -customer N -amount X -method M
  reverse    <payment> -reason R
  payment    delete|restore -customer N <payment>
  dashboard  [-start D] [-end D] [-limit N]

flags:
`

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	var (
		apiURL      string
		sessionPath string
		logLevel    string
		timeout     time.Duration
	)
	defaultSession, _ := session.DefaultPath()
	flag.StringVar(&apiURL, "api", firstEnv("LEDGER_API_URL", "UPSTREAM_URL"), "backend API root (LEDGER_API_URL or UPSTREAM_URL)")
	flag.StringVar(&sessionPath, "session", defaultSession, "session file")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "timeout of a single backend request")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	lg, err := newLogger(logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = zctx.Base(ctx, lg)

	if err := run(ctx, os.Stdout, apiURL, sessionPath, timeout, flag.Args()); err != nil {
		lg.Debug("Command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	lg, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return lg, nil
}

// cli holds what every command needs.
type cli struct {
	out     io.Writer
	session *session.Session
	client  *client.Client
	ctl     *state.Controller
	orders  *order.Service
	now     func() time.Time
}

func newCLI(out io.Writer, apiURL, sessionPath string, timeout time.Duration) (*cli, error) {
	if apiURL == "" {
		return nil, errors.New("backend URL is required: set -api, LEDGER_API_URL or UPSTREAM_URL")
	}
	if sessionPath == "" {
		return nil, errors.New("session file is required: set -session")
	}

	sess, err := session.New(session.NewFileStore(sessionPath))
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	c, err := client.New(apiURL, sess,
		client.WithTimeout(timeout),
		client.WithTracerProvider(otel.GetTracerProvider()),
		client.WithMeterProvider(otel.GetMeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create client")
	}
	ledgers, err := ledger.NewService(c, otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return nil, errors.Wrap(err, "create ledger service")
	}

	orders := order.NewService(c.Orders())
	return &cli{
		out:     out,
		session: sess,
		client:  c,
		orders:  orders,
		ctl: state.NewController(state.Deps{
			Customers: c.Customers(),
			Products:  c.Products(),
			Users:     c.Users(),
			Orders:    orders,
			Payments:  payment.NewService(c.Payments()),
			Ledger:    ledgers,
			Dashboard: dashboard.NewAggregator(c),
		}),
		now: time.Now,
	}, nil
}

func run(ctx context.Context, out io.Writer, apiURL, sessionPath string, timeout time.Duration, args []string) error {
	cmd, rest := args[0], args[1:]
	if cmd == "help" {
		flag.Usage()
		return nil
	}

	c, err := newCLI(out, apiURL, sessionPath, timeout)
	if err != nil {
		return err
	}

	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout()
	case "whoami":
		return c.whoami()
	case "ledger":
		return c.ledger(ctx, rest)
	case "quote":
		return c.quote(rest)
	case "order":
		return c.order(ctx, rest)
	case "pay":
		return c.pay(ctx, rest)
	case "reverse":
		return c.reverse(ctx, rest)
	case "payment":
		return c.payment(ctx, rest)
	case "dashboard":
		return c.dashboard(ctx, rest)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}
