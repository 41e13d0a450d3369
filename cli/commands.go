// Package cli provides the Cobra-based CLI for minimarket.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"minimarket/catalog"
	"minimarket/identity"
	"minimarket/order"
	"minimarket/session"
	"minimarket/slot"
	"minimarket/store"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const devSecret = "minimarket-dev-secret"

var (
	rootCmd = &cobra.Command{
		Use:               "minimarket",
		Short:             "Hami MiniMarket storefront: catalog, cart, checkout and order history",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// sess is the running session; tests inject their own
	sess *session.Session

	// closers are released when Execute returns
	closers []io.Closer
)

func setup(cmd *cobra.Command, args []string) error {
	// IMPORTANT: allow tests to inject a session
	if sess != nil {
		return nil
	}

	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		if err := viper.ReadInConfig(); err != nil {
			return err
		}
	}

	lvlStr := strings.ToLower(viper.GetString("log-level"))
	lvl := slog.LevelInfo
	switch lvlStr {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
	))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	backend, err := store.NewStore(ctx,
		viper.GetString("store"),
		viper.GetString("store-dsn"),
	)
	if err != nil {
		return err
	}
	closers = append(closers, backend)

	prefix := viper.GetString("redis-key-prefix")
	slotKind := viper.GetString("cart-slot")
	cartSlot, err := openSlot(slotKind, slot.Options{
		Path:      viper.GetString("cart-file"),
		RedisAddr: viper.GetString("redis-addr"),
		Key:       prefix + "cart",
	})
	if err != nil {
		return err
	}
	sessionSlot, err := openSlot(slotKind, slot.Options{
		Path:      viper.GetString("session-file"),
		RedisAddr: viper.GetString("redis-addr"),
		Key:       prefix + "session",
	})
	if err != nil {
		return err
	}

	secret := viper.GetString("jwt-secret")
	if secret == "" || secret == devSecret {
		slog.Warn("using the development token secret; set MINIMARKET_JWT_SECRET")
		secret = devSecret
	}

	sess, err = session.New(ctx, session.Deps{
		CartSlot: cartSlot,
		Catalog:  catalog.New(backend),
		Identity: identity.NewProvider(backend,
			identity.NewTokenManager([]byte(secret), viper.GetDuration("token-ttl")),
			sessionSlot,
			identity.WithLoginRate(viper.GetFloat64("login-rate")),
		),
		Orders: order.NewPipeline(backend),
	})
	return err
}

func openSlot(kind string, opts slot.Options) (slot.Slot, error) {
	s, err := slot.NewSlot(kind, opts)
	if err != nil {
		return nil, err
	}
	if c, ok := s.(io.Closer); ok {
		closers = append(closers, c)
	}
	return s, nil
}

// runLine executes one shell line against the command tree
func runLine(args []string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.Execute()
}

// resetFlags puts every command flag back to its default so a line does not
// inherit the flags of the one before it. Persistent flags keep the values the
// shell was started with.
func resetFlags(cmd *cobra.Command) {
	persistent := rootCmd.PersistentFlags()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if persistent.Lookup(f.Name) == f {
			return
		}
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func init() {
	// shell
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("minimarket> ")
				line, err := r.ReadString('\n')
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				if err := runLine(strings.Fields(line)); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
			}
		},
	}
	rootCmd.AddCommand(shellCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("store", "file", "store backend: memory|file|sqlite|postgres")
	pf.String("store-dsn", "data/minimarket.json", "store file path or database DSN")
	pf.String("cart-slot", "file", "where the cart and sign-in are kept: file|redis|memory")
	pf.String("cart-file", "data/cart.json", "cart file for the file slot")
	pf.String("session-file", "data/session.json", "sign-in file for the file slot")
	pf.String("redis-addr", "localhost:6379", "redis address for the redis slot")
	pf.String("redis-key-prefix", "minimarket:", "redis key prefix")
	pf.String("jwt-secret", "", "token signing secret")
	pf.Duration("token-ttl", identity.DefaultTokenTTL, "sign-in lifetime")
	pf.Float64("login-rate", 5, "login attempts per second")
	pf.String("currency", "USD", "ISO currency used to display amounts")
	pf.String("config", "", "config file")
	pf.String("log-level", "info", "log level")

	for _, name := range []string{
		"store", "store-dsn", "cart-slot", "cart-file", "session-file",
		"redis-addr", "redis-key-prefix", "jwt-secret", "token-ttl", "login-rate",
		"currency", "config", "log-level",
	} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.SetEnvPrefix("MINIMARKET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func Execute() error {
	defer release()
	return rootCmd.Execute()
}

func release() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	if len(closers) > 0 {
		sess = nil
	}
	closers = nil
}
