package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/diary-replier/internal/app"
	"github.com/lueurxax/diary-replier/internal/core/domain"
	"github.com/lueurxax/diary-replier/internal/core/ports"
	"github.com/lueurxax/diary-replier/internal/platform/config"
)

const (
	defaultOutDir  = "exports"
	fileTimeLayout = "20060102_1504"
	outputDirPerm  = 0o755
	errFmt         = "%v\n"
)

var (
	errStorageDisabled = errors.New("STORAGE_DRIVER must be postgres or sqlite to export logs")
	csvHeader          = []string{"input_text", "target_reply", "valence", "emotions", "summary"}
)

type exportConfig struct {
	outDir string
	userID string
}

func main() {
	cfg := parseFlags()

	if err := runExport(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}
}

func parseFlags() exportConfig {
	cfg := exportConfig{}

	flag.StringVar(&cfg.outDir, "out-dir", defaultOutDir, "Directory for the exported CSV")
	flag.StringVar(&cfg.userID, "user", "", "Only export logs of this user id")

	flag.Parse()

	return cfg
}

func runExport(ctx context.Context, cfg exportConfig) error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	store, err := app.OpenStore(ctx, appCfg, &logger)
	if err != nil {
		return err
	}

	if store == nil {
		return errStorageDisabled
	}
	defer store.Close()

	path, count, err := exportPairs(ctx, store, cfg, time.Now())
	if err != nil {
		return err
	}

	logger.Info().Str("path", path).Int("rows", count).Msg("export complete")

	return nil
}

func exportPairs(ctx context.Context, logs ports.DiaryLogReader, cfg exportConfig, now time.Time) (string, int, error) {
	rows, err := logs.ListDiaryLogs(ctx, cfg.userID, 0)
	if err != nil {
		return "", 0, fmt.Errorf("list diary logs: %w", err)
	}

	if err := os.MkdirAll(cfg.outDir, outputDirPerm); err != nil {
		return "", 0, fmt.Errorf("create output dir: %w", err)
	}

	path := exportPath(cfg.outDir, now)

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", 0, fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	count, err := writePairs(f, rows)
	if err != nil {
		return "", 0, err
	}

	return path, count, nil
}

func exportPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("pairs_%s.csv", now.Format(fileTimeLayout)))
}

// writePairs skips logs without an input text or a reply.
func writePairs(w io.Writer, rows []domain.DiaryLog) (int, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	count := 0

	for _, row := range rows {
		target := row.TargetReply()
		if row.InputText == "" || target == "" {
			continue
		}

		record := []string{row.InputText, target, row.Valence, strings.Join(row.Emotions, ","), row.Summary}
		if err := cw.Write(record); err != nil {
			return count, fmt.Errorf("write row %d: %w", row.ID, err)
		}

		count++
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush csv: %w", err)
	}

	return count, nil
}
