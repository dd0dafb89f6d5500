package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/cnc-n3r4/Isaac-sub001/internal/advisor"
	"github.com/cnc-n3r4/Isaac-sub001/internal/audit"
	"github.com/cnc-n3r4/Isaac-sub001/internal/config"
	"github.com/cnc-n3r4/Isaac-sub001/internal/dispatch"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
	"github.com/cnc-n3r4/Isaac-sub001/internal/platform"
	"github.com/cnc-n3r4/Isaac-sub001/internal/provider"
	"github.com/cnc-n3r4/Isaac-sub001/internal/sandbox"
	"github.com/cnc-n3r4/Isaac-sub001/internal/secrets"
	"github.com/cnc-n3r4/Isaac-sub001/internal/securemem"
	"github.com/cnc-n3r4/Isaac-sub001/internal/session"
	"github.com/cnc-n3r4/Isaac-sub001/internal/tier"
)

var version = "dev"

const maxPasswordAttempts = 3

type cliOptions struct {
	command     string
	platform    string
	device      string
	force       bool
	configPath  string
	sessionID   string
	tierRules   string
	logLevel    string
	logFile     string
	timeout     int
	showVersion bool
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run() (exitCode int, err error) {
	opts, parseErr := parseCLIArgs(os.Args[1:])
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return 0, nil
		}
		return 2, parseErr
	}
	if opts.showVersion {
		fmt.Printf("isaac %s\n", version)
		return 0, nil
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = config.GetConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return 1, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagOverrides(cfg, opts)

	securemem.Init()
	defer securemem.Shutdown()

	password, err := ensureSecretsPassword(cfg)
	if err != nil {
		return 1, fmt.Errorf("failed to unlock API keys: %w", err)
	}

	var loggerInitialized bool
	defer func() {
		if !loggerInitialized {
			return
		}
		if err != nil {
			logger.Error("fatal: %v", err)
		}
		if closeErr := logger.Global().Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close logger: %v\n", closeErr)
		}
	}()
	if initErr := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); initErr != nil {
		return 1, fmt.Errorf("failed to initialize logger: %w", initErr)
	}
	loggerInitialized = true
	logger.Info("isaac %s starting", version)

	p, err := platform.Parse(opts.platform)
	if err != nil {
		return 2, err
	}
	if !p.Valid() {
		p = platform.Detect()
	}

	providerMgr, err := provider.NewManager(cfg.ProviderConfigPath, password)
	if err != nil {
		return 1, fmt.Errorf("failed to load provider config: %w", err)
	}
	gate := buildGate(cfg, providerMgr)

	// An unreadable or malformed rules file is fatal: running with a
	// weaker table than the operator wrote would be silent permission
	// widening. A missing file just means builtin defaults.
	source := tier.NewSource(cfg.TierRulesPath)
	table, err := source.Load()
	if err != nil {
		return 1, err
	}
	classifier := tier.NewClassifier(table)
	if watcher := tier.NewWatcher(source, classifier, logger.Global()); watcher != nil {
		defer watcher.Close()
	}

	journal, journalErr := audit.Open(cfg.AuditDBPath)
	if journalErr != nil {
		logger.Warn("audit journal disabled: %v", journalErr)
	} else {
		defer journal.Close()
	}

	sessions, err := session.NewManager(cfg.StateDir)
	if err != nil {
		return 1, fmt.Errorf("failed to prepare session storage: %w", err)
	}
	sess := loadOrCreateSession(sessions, opts.sessionID, resolveWorkingDir(cfg), p)
	lock, err := sessions.Acquire(sess.ID)
	if err != nil {
		return 1, fmt.Errorf("cannot claim session %s: %w", sess.ID, err)
	}
	defer lock.Release()
	if opts.platform != "" {
		if perr := sess.SetPlatform(p); perr != nil {
			return 2, perr
		}
	} else if sp := sess.Platform(); sp.Valid() {
		p = sp
	}
	defer func() {
		if saveErr := sessions.Save(sess); saveErr != nil {
			logger.Warn("failed to save session %s: %v", sess.ID, saveErr)
		}
	}()

	// Confine the process before the first command can run. Failure
	// degrades to a warning; the tier gates still apply.
	guard := sandbox.NewGuard(sess.WorkingDir(), cfg.Sandbox, cfg.StateDir, filepath.Dir(cfg.AuditDBPath))
	if guard.Enabled() {
		if sbErr := guard.Restrict(); sbErr != nil {
			logger.Warn("sandbox not applied: %v", sbErr)
		}
	}

	router := dispatch.NewRouter(dispatch.Options{
		Classifier:   classifier,
		Source:       source,
		Gate:         gate,
		Config:       cfg,
		Audit:        journal,
		ShellTimeout: cfg.ShellTimeoutDuration(),
	})

	stdin := bufio.NewReader(os.Stdin)
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		// Confirmation prompts read from the same reader as the REPL.
		sess.SetConfirmer(&stdinConfirmer{in: stdin, out: os.Stderr})
	}

	if opts.command != "" {
		res := route(router, sess, p, opts, opts.command)
		printResult(res)
		return resultExitCode(res), nil
	}
	if !interactive {
		return scriptLoop(router, sess, p, opts, stdin), nil
	}
	return replLoop(router, sess, p, opts, stdin), nil
}

func route(router *dispatch.Router, sess *session.Session, p platform.Platform, opts *cliOptions, input string) *dispatch.CommandResult {
	res := router.Route(context.Background(), &dispatch.Context{
		RawInput:     input,
		Platform:     p,
		Force:        opts.force,
		DeviceTarget: opts.device,
		Session:      sess,
	})
	sess.Touch()
	return res
}

// scriptLoop executes piped stdin line by line, the way a shell runs a
// script: a failing line does not stop the rest, the last line sets the
// exit code. Confirmations auto-decline without a terminal.
func scriptLoop(router *dispatch.Router, sess *session.Session, p platform.Platform, opts *cliOptions, stdin *bufio.Reader) int {
	code := 0
	for {
		line, err := stdin.ReadString('\n')
		if text := strings.TrimSpace(line); text != "" {
			res := route(router, sess, p, opts, text)
			printResult(res)
			code = resultExitCode(res)
		}
		if err != nil {
			return code
		}
	}
}

func replLoop(router *dispatch.Router, sess *session.Session, p platform.Platform, opts *cliOptions, stdin *bufio.Reader) int {
	fmt.Fprintf(os.Stderr, "isaac %s on %s, session %s\n", version, p, sess.ID)
	fmt.Fprintln(os.Stderr, `type a command, "history", "tiers show" or "exit"`)

	code := 0
	for {
		fmt.Fprintf(os.Stderr, "isaac:%s> ", filepath.Base(sess.WorkingDir()))
		line, err := stdin.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			}
			fmt.Fprintln(os.Stderr)
			return code
		}

		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return code
		}

		res := route(router, sess, p, opts, text)
		printResult(res)
		code = resultExitCode(res)
	}
}

// buildGate assembles the advisor from whatever models are configured. A
// missing key only disables the role that needed it; tier 3 then refuses
// at dispatch time instead of at boot.
func buildGate(cfg *config.Config, providerMgr *provider.Manager) advisor.Gate {
	safety, err := providerMgr.SafetyClient()
	if err != nil {
		logger.Warn("safety model unavailable, tier 3 commands will be refused: %v", err)
	}
	corrector, err := providerMgr.CorrectionClient()
	if err != nil {
		logger.Warn("correction model unavailable, typos will not be fixed: %v", err)
	}

	eval := advisor.NewEvaluator(safety, corrector,
		advisor.WithValidationTimeout(cfg.ValidationTimeoutDuration()))
	return advisor.NewCachedGate(eval, cfg.CacheTTLDuration(), cfg.MaxCacheEntries)
}

// applyFlagOverrides lets command-line flags win over the config file, the
// same way environment overrides do inside config.Load.
func applyFlagOverrides(cfg *config.Config, opts *cliOptions) {
	if opts.tierRules != "" {
		cfg.TierRulesPath = opts.tierRules
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFile != "" {
		cfg.LogPath = opts.logFile
	}
	if opts.timeout > 0 {
		cfg.ShellTimeout = opts.timeout
	}
}

func loadOrCreateSession(sessions *session.Manager, id, workingDir string, p platform.Platform) *session.Session {
	if id != "" {
		sess, err := sessions.Load(id)
		if err == nil {
			logger.Info("resumed session %s", sess.ID)
			return sess
		}
		logger.Warn("could not resume session %s, starting fresh: %v", id, err)
	}
	return session.New(workingDir, p)
}

func resolveWorkingDir(cfg *config.Config) string {
	wd := cfg.WorkingDir
	if wd == "" || wd == "." {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
	}
	abs, err := filepath.Abs(wd)
	if err != nil {
		return wd
	}
	return abs
}

func printResult(res *dispatch.CommandResult) {
	if res == nil {
		return
	}
	if res.AICorrected != "" {
		fmt.Fprintf(os.Stderr, "corrected: %s\n", res.AICorrected)
	}
	if res.AIValidation != nil && res.Success {
		for _, w := range res.AIValidation.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
	if res.Output != "" {
		fmt.Print(res.Output)
		if !strings.HasSuffix(res.Output, "\n") {
			fmt.Println()
		}
	}
	if !res.Success && res.Error != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", res.Error)
	}
}

func resultExitCode(res *dispatch.CommandResult) int {
	if res == nil {
		return 1
	}
	if res.Success {
		return 0
	}
	if res.ExitCode > 0 {
		return res.ExitCode
	}
	return 1
}

// stdinConfirmer asks on the controlling terminal's streams. Only an
// explicit yes affirms; everything else, including EOF, declines.
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (c *stdinConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func ensureSecretsPassword(cfg *config.Config) (string, error) {
	if pw := os.Getenv("ISAAC_SECRETS_PASSWORD"); pw != "" {
		if err := cfg.ApplySecretsPassword(strings.TrimSpace(pw)); err != nil {
			return "", err
		}
		return cfg.SecretsPassword(), nil
	}

	if cfg.Secrets.PasswordSet {
		for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
			pw, err := promptForPassword("Enter encryption password: ")
			if err != nil {
				return "", err
			}
			if err := cfg.ApplySecretsPassword(pw); err != nil {
				if errors.Is(err, secrets.ErrInvalidPassword) {
					fmt.Fprintln(os.Stderr, "Invalid password, try again.")
					continue
				}
				return "", err
			}
			return cfg.SecretsPassword(), nil
		}
		return "", errors.New("too many invalid password attempts")
	}

	if err := cfg.ApplySecretsPassword(""); err != nil {
		return "", err
	}
	return cfg.SecretsPassword(), nil
}

func promptForPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(fd) {
		bytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func parseCLIArgs(args []string) (*cliOptions, error) {
	fs := flag.NewFlagSet("isaac", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := &cliOptions{}
	fs.StringVar(&opts.command, "c", "", "Execute one command and exit")
	fs.StringVar(&opts.platform, "platform", "", "Target shell: bash or powershell (default: detect)")
	fs.StringVar(&opts.device, "device", "", "Route the command to a configured device")
	fs.BoolVar(&opts.force, "force", false, "Bypass correction, confirmation and validation (tier 4 still refuses)")
	fs.StringVar(&opts.configPath, "config", "", "Path to config.json")
	fs.StringVar(&opts.sessionID, "session", "", "Resume a saved session by ID")
	fs.StringVar(&opts.tierRules, "tier-rules", "", "Path to the tier rules file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error or none")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file")
	fs.IntVar(&opts.timeout, "timeout", 0, "Shell timeout in seconds")
	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [options] [command ...]\n\n", os.Args[0])
		fmt.Fprintln(fs.Output(), "Without a command isaac starts an interactive session.")
		fmt.Fprintln(fs.Output(), "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if rest := strings.TrimSpace(strings.Join(fs.Args(), " ")); rest != "" {
		if opts.command != "" {
			return nil, errors.New("pass the command either via -c or as arguments, not both")
		}
		opts.command = rest
	}
	return opts, nil
}
