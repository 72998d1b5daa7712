package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/twiterfame/sdk/internal/account"
	"github.com/twiterfame/sdk/internal/keystore"
	"github.com/twiterfame/sdk/internal/metrics"
	"github.com/twiterfame/sdk/internal/platform/redactlog"
	"github.com/twiterfame/sdk/internal/record"
)

const (
	exitOK             = 0
	exitInvalidInput   = 10
	exitWrongKey       = 20
	exitKeystoreFailed = 30
)

var (
	logger          = slog.New(redactlog.Wrap(slog.NewTextHandler(os.Stderr, nil)))
	metricsRegistry = prometheus.NewRegistry()
	collector       = metrics.NewCollector(metricsRegistry)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitInvalidInput)
	}

	switch os.Args[1] {
	case "new":
		runNew(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "address":
		runAddress(os.Args[2:])
	case "view-key":
		runViewKey(os.Args[2:])
	case "decrypt":
		runDecrypt(os.Args[2:])
	case "change-passphrase":
		runChangePassphrase(os.Args[2:])
	default:
		printUsage()
		os.Exit(exitInvalidInput)
	}
}

func runNew(args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	configPath := fs.String("config", "", "path to accountctl.yaml (optional)")
	keystorePath := fs.String("keystore", "", "write the key to this keystore file")
	passphrase := fs.String("passphrase", os.Getenv("SDK_PASSPHRASE"), "keystore passphrase")
	withMnemonic := fs.Bool("mnemonic", false, "also emit a BIP-39 backup phrase")
	metricsDump := fs.Bool("metrics-dump", false, "print prometheus counters to stderr before exit")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	var (
		key      *account.SecretKey
		mnemonic string
		err      error
	)
	if *withMnemonic {
		key, mnemonic, err = account.GenerateWithMnemonic(rand.Reader)
	} else {
		key, err = account.Generate()
	}
	if err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	collector.KeysGenerated.Inc()
	logger.Info("generated account", "address", key.Address().String())

	if path := resolveKeystorePath(*configPath, *keystorePath); path != "" {
		if err := keystore.Save(path, *passphrase, key); err != nil {
			writeStderrln(err.Error(), exitKeystoreFailed)
		}
	}

	out := map[string]any{
		"secret_key": key.String(),
		"view_key":   key.ViewKey().String(),
		"address":    key.Address().String(),
	}
	if *withMnemonic {
		out["mnemonic"] = mnemonic
	}
	if err := printJSON(out); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	if *metricsDump {
		if err := metrics.WriteTo(os.Stderr, metricsRegistry); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	os.Exit(exitOK)
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", "", "path to accountctl.yaml (optional)")
	keyToken := fs.String("key", "", "secret key token")
	mnemonic := fs.String("from-mnemonic", "", "BIP-39 backup phrase")
	keystorePath := fs.String("keystore", "", "write the key to this keystore file")
	passphrase := fs.String("passphrase", os.Getenv("SDK_PASSPHRASE"), "keystore passphrase")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	var (
		key *account.SecretKey
		err error
	)
	switch {
	case strings.TrimSpace(*keyToken) != "":
		key, err = account.ParseSecretKey(strings.TrimSpace(*keyToken))
	case strings.TrimSpace(*mnemonic) != "":
		key, err = account.FromMnemonic(*mnemonic)
	default:
		writeStderrln("either -key or -from-mnemonic is required", exitInvalidInput)
		return
	}
	if err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}

	if path := resolveKeystorePath(*configPath, *keystorePath); path != "" {
		if err := keystore.Save(path, *passphrase, key); err != nil {
			writeStderrln(err.Error(), exitKeystoreFailed)
		}
	}
	if err := printJSON(map[string]any{"address": key.Address().String()}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	os.Exit(exitOK)
}

func runAddress(args []string) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	source := keySourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	key := mustResolveKey(source)
	if err := printJSON(map[string]any{"address": key.Address().String()}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	os.Exit(exitOK)
}

func runViewKey(args []string) {
	fs := flag.NewFlagSet("view-key", flag.ExitOnError)
	source := keySourceFlags(fs)
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	key := mustResolveKey(source)
	if err := printJSON(map[string]any{"view_key": key.ViewKey().String()}); err != nil {
		writeStderrln(err.Error(), exitKeystoreFailed)
	}
	os.Exit(exitOK)
}

func runDecrypt(args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	source := keySourceFlags(fs)
	ciphertext := fs.String("ciphertext", "", "record ciphertext token")
	metricsDump := fs.Bool("metrics-dump", false, "print prometheus counters to stderr before exit")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	token := strings.TrimSpace(*ciphertext)
	if token == "" && fs.NArg() > 0 {
		token = strings.TrimSpace(fs.Arg(0))
	}
	if token == "" {
		writeStderrln("ciphertext is required", exitInvalidInput)
	}

	key := mustResolveKey(source)
	code := exitOK
	plaintext, err := record.Decrypt(token, key.ViewKey())
	switch {
	case errors.Is(err, record.ErrInvalidCiphertext):
		collector.ObserveDecrypt(metrics.OutcomeInvalidFormat)
		fmt.Fprintln(os.Stderr, err)
		code = exitInvalidInput
	case errors.Is(err, record.ErrIncorrectViewKey):
		collector.ObserveDecrypt(metrics.OutcomeIncorrectViewKey)
		fmt.Fprintln(os.Stderr, err)
		code = exitWrongKey
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		code = exitKeystoreFailed
	default:
		collector.ObserveDecrypt(metrics.OutcomeOK)
		logger.Info("decrypted record", "address", key.Address().String())
		if err := printJSON(map[string]any{"plaintext": plaintext}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			code = exitKeystoreFailed
		}
	}
	if *metricsDump {
		if err := metrics.WriteTo(os.Stderr, metricsRegistry); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	os.Exit(code)
}

func runChangePassphrase(args []string) {
	fs := flag.NewFlagSet("change-passphrase", flag.ExitOnError)
	configPath := fs.String("config", "", "path to accountctl.yaml (optional)")
	keystorePath := fs.String("keystore", "", "keystore file")
	oldPassphrase := fs.String("old", "", "current passphrase")
	newPassphrase := fs.String("new", "", "new passphrase")
	if err := fs.Parse(args); err != nil {
		writeStderrln(err.Error(), exitInvalidInput)
	}
	path := resolveKeystorePath(*configPath, *keystorePath)
	if path == "" {
		writeStderrln("keystore path is required", exitInvalidInput)
	}
	if err := keystore.ChangePassphrase(path, *oldPassphrase, *newPassphrase); err != nil {
		code := exitKeystoreFailed
		if errors.Is(err, keystore.ErrWrongPassphrase) || errors.Is(err, keystore.ErrPassphraseRequired) {
			code = exitInvalidInput
		}
		writeStderrln(err.Error(), code)
	}
	os.Exit(exitOK)
}

type keySource struct {
	configPath   *string
	keyToken     *string
	keystorePath *string
	passphrase   *string
}

func keySourceFlags(fs *flag.FlagSet) keySource {
	return keySource{
		configPath:   fs.String("config", "", "path to accountctl.yaml (optional)"),
		keyToken:     fs.String("key", "", "secret key token"),
		keystorePath: fs.String("keystore", "", "keystore file"),
		passphrase:   fs.String("passphrase", os.Getenv("SDK_PASSPHRASE"), "keystore passphrase"),
	}
}

func mustResolveKey(source keySource) *account.SecretKey {
	if token := strings.TrimSpace(*source.keyToken); token != "" {
		key, err := account.ParseSecretKey(token)
		if err != nil {
			writeStderrln(err.Error(), exitInvalidInput)
		}
		return key
	}
	path := resolveKeystorePath(*source.configPath, *source.keystorePath)
	if path == "" {
		writeStderrln("either -key or a keystore is required", exitInvalidInput)
	}
	key, err := keystore.Load(path, *source.passphrase)
	if err != nil {
		code := exitKeystoreFailed
		if errors.Is(err, keystore.ErrWrongPassphrase) || errors.Is(err, keystore.ErrPassphraseRequired) {
			code = exitInvalidInput
		}
		writeStderrln(err.Error(), code)
	}
	return key
}

func resolveKeystorePath(configPath, flagPath string) string {
	if strings.TrimSpace(flagPath) != "" {
		return strings.TrimSpace(flagPath)
	}
	return strings.TrimSpace(loadConfig(configPath).Keystore.Path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: accountctl <new|import|address|view-key|decrypt|change-passphrase> [flags]")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStderrln(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
