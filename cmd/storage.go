package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlhasanIQ/oriki/config"
)

type storageClearReport struct {
	Removed []string
	Missing []string
}

func newStorageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage local runtime storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var withLogs bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the result cache files for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.clearStorage(cmd.Context(), withLogs)
			if err != nil {
				return err
			}
			printStorageClearReport(a.io.ErrOut, a.cfg.Cache.Backend, report)
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&withLogs, "logs", false, "Also delete the log file")
	cmd.AddCommand(clearCmd)
	return cmd
}

// clearStorage removes the cache files of a file or sqlite backend. A redis
// slot has no local files, so its key is deleted instead.
func (a *app) clearStorage(ctx context.Context, withLogs bool) (storageClearReport, error) {
	var targets []string
	switch a.cfg.Cache.Backend {
	case config.CacheBackendRedis:
		rc, err := a.resultCache()
		if err != nil {
			return storageClearReport{}, err
		}
		rc.Clear(ctx)
		_ = rc.Close()
	case config.CacheBackendFile, config.CacheBackendSQLite:
		t, err := cacheStorageTargets(a.cfg)
		if err != nil {
			return storageClearReport{}, err
		}
		targets = append(targets, t...)
	}
	if withLogs {
		p, err := config.EffectiveLogPath(a.cfg)
		if err != nil {
			return storageClearReport{}, err
		}
		targets = append(targets, p)
	}
	return removeTargets(dedupeNonEmpty(targets))
}

func removeTargets(targets []string) (storageClearReport, error) {
	report := storageClearReport{
		Removed: make([]string, 0, len(targets)),
		Missing: make([]string, 0, len(targets)),
	}
	for _, path := range targets {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				report.Missing = append(report.Missing, path)
				continue
			}
			return report, fmt.Errorf("delete %s: %w", path, err)
		}
		report.Removed = append(report.Removed, path)
	}
	return report, nil
}

func cacheStorageTargets(cfg config.Config) ([]string, error) {
	path, err := config.EffectiveCachePath(cfg)
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if cfg.Cache.Backend == config.CacheBackendSQLite {
		return dedupeNonEmpty([]string{
			path,
			path + "-wal",
			path + "-shm",
			path + "-journal",
		}), nil
	}
	return dedupeNonEmpty([]string{
		path,
		path + ".lock",
		path + ".tmp",
	}), nil
}

func dedupeNonEmpty(paths []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func printStorageClearReport(w io.Writer, backend string, report storageClearReport) {
	for _, p := range report.Removed {
		fmt.Fprintf(w, "Deleted %s\n", p)
	}
	switch {
	case backend == config.CacheBackendRedis:
		fmt.Fprintln(w, "Cleared redis result slot")
	case len(report.Removed) == 0:
		fmt.Fprintf(w, "No storage files found for %s backend\n", backend)
	default:
		fmt.Fprintf(w, "Cleared storage for %s backend\n", backend)
	}
}
