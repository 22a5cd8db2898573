package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlhasanIQ/oriki/config"
)

var (
	setupEnvironments  = []string{config.EnvironmentLocal, config.EnvironmentProduction, "custom"}
	setupCacheBackends = []string{config.CacheBackendFile, config.CacheBackendSQLite, config.CacheBackendRedis, config.CacheBackendNone}
)

func newSetupCmd(a *app) *cobra.Command {
	var nonInteractive, skipPing bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-time setup, or checklist-only mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if nonInteractive {
				return runSetupNonInteractive(a.io.Out, a.cfg)
			}
			if err := a.runSetupInteractive(); err != nil {
				return err
			}
			if skipPing {
				return nil
			}
			fmt.Fprintln(a.io.ErrOut)
			if err := a.ping(cmd.Context()); err != nil {
				s := newSty(a.io.ErrOut)
				s.info(s.dim(fmt.Sprintf("(%v) You can retry with `oriki ping`.", err)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Print setup checklist instead of prompting")
	cmd.Flags().BoolVar(&skipPing, "skip-ping", false, "Do not contact the service after saving")
	return cmd
}

func (a *app) runSetupInteractive() error {
	s := newSty(a.io.ErrOut)
	s.header("oriki · interactive setup")
	reader := bufio.NewReader(a.io.In)
	cfg := a.cfg

	s.section("Service")
	for i, env := range setupEnvironments {
		switch env {
		case config.EnvironmentLocal:
			s.choice(i+1, "Local", config.LocalBaseURL)
		case config.EnvironmentProduction:
			s.choice(i+1, "Production", config.ProductionBaseURL)
		default:
			s.choice(i+1, "Custom URL", "")
		}
	}
	env, err := promptChoice(reader, s, setupEnvironments, currentEnvironment(cfg))
	if err != nil {
		return err
	}
	if env == "custom" {
		for {
			raw, err := promptRequiredLine(reader, s, s.promptLabel("Base URL: "))
			if err != nil {
				return err
			}
			if err := config.Set(&cfg, "api_base_url", raw); err != nil {
				s.errMsg(err.Error())
				continue
			}
			break
		}
	} else {
		cfg.Environment = env
		cfg.APIBaseURL = ""
	}

	s.section("Saved results")
	s.choice(1, "File", "a JSON file in your state directory")
	s.choice(2, "SQLite", "a local database")
	s.choice(3, "Redis", "shared across machines")
	s.choice(4, "None", "never keep results")
	backend, err := promptChoice(reader, s, setupCacheBackends, cfg.Cache.Backend)
	if err != nil {
		return err
	}
	cfg.Cache.Backend = backend
	if backend == config.CacheBackendRedis {
		label := "Redis address (host:port): "
		if cfg.Cache.RedisAddr != "" {
			label = fmt.Sprintf("Redis address [%s]: ", cfg.Cache.RedisAddr)
		}
		addr, err := promptOptionalLine(reader, s.w, s.promptLabel(label))
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.Cache.RedisAddr = addr
		}
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	}

	s.section("Narration")
	voice, err := promptOptionalLine(reader, s.w, s.promptLabel(fmt.Sprintf("Voice [%s]: ", cfg.Voice)))
	if err != nil {
		return err
	}
	if voice != "" {
		cfg.Voice = voice
	}

	if err := config.Save(cfg); err != nil {
		return err
	}
	a.cfg = cfg
	config.ApplyDefaults(&a.cfg)

	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.w)
	s.success("Setup complete")
	s.info(s.dim(fmt.Sprintf("Config saved to %s", path)))
	return nil
}

func currentEnvironment(cfg config.Config) string {
	if cfg.APIBaseURL != "" {
		return "custom"
	}
	return cfg.Environment
}

// promptChoice reads a 1-based menu selection or an option name. An empty
// answer keeps current.
func promptChoice(reader *bufio.Reader, s *sty, options []string, current string) (string, error) {
	def := 1
	for i, o := range options {
		if o == current {
			def = i + 1
		}
	}
	for {
		line, err := promptOptionalLine(reader, s.w, s.promptLabel(fmt.Sprintf("Choice [%d]: ", def)))
		if err != nil {
			return "", err
		}
		if line == "" {
			return options[def-1], nil
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(o, line) {
				return o, nil
			}
		}
		s.errMsg(fmt.Sprintf("Pick 1-%d.", len(options)))
	}
}

func runSetupNonInteractive(w io.Writer, cfg config.Config) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	baseURL, err := config.EffectiveBaseURL(cfg)
	if err != nil {
		baseURL = fmt.Sprintf("invalid (%v)", err)
	}

	fmt.Fprintln(w, "Setup checklist (non-interactive)")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config path: %s\n", path)
	fmt.Fprintf(w, "Service:     %s\n", baseURL)
	fmt.Fprintf(w, "Cache:       %s\n", cfg.Cache.Backend)
	fmt.Fprintf(w, "Voice:       %s\n", cfg.Voice)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Step 1: Pick a service with `oriki config set environment local|production`")
	fmt.Fprintln(w, "          or `oriki config set api_base_url <url>`.")
	fmt.Fprintln(w, "  Step 2: Pick where results are kept with `oriki config set cache.backend file|sqlite|redis|none`.")
	if cfg.Cache.Backend == config.CacheBackendRedis && cfg.Cache.RedisAddr == "" {
		fmt.Fprintln(w, "          Redis needs `oriki config set cache.redis_addr <host:port>`.")
	}
	fmt.Fprintln(w, "  Step 3: Run `oriki ping` to check the service is reachable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Verification: run `oriki config show`.")
	return nil
}

func promptRequiredLine(reader *bufio.Reader, s *sty, prompt string) (string, error) {
	for {
		line, err := promptLine(reader, s.w, prompt)
		if err == io.EOF {
			return "", fmt.Errorf("input closed before a value was given")
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			s.errMsg("This value is required.")
			continue
		}
		return line, nil
	}
}

// promptLine returns io.EOF only when the input ended with nothing on the
// line.
func promptLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if err == io.EOF && line != "" {
		err = nil
	}
	return line, err
}

func promptOptionalLine(reader *bufio.Reader, w io.Writer, prompt string) (string, error) {
	line, err := promptLine(reader, w, prompt)
	if err == io.EOF {
		fmt.Fprintln(w)
		return "", nil
	}
	return line, err
}
