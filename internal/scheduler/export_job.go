package scheduler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tradeJournal/internal/analytics"
)

// ExportSource is the part of the journal service the export job needs.
type ExportSource interface {
	Owners(ctx context.Context) ([]string, error)
	ExportCSV(ctx context.Context, ownerID string, w *analytics.Window, out io.Writer) error
}

// ExportJob writes one CSV snapshot per owner into Dir. Files are written to a
// temporary name and renamed, so readers never see a partial export.
type ExportJob struct {
	Source ExportSource
	Dir    string
	Log    zerolog.Logger
	Now    func() time.Time // defaults to time.Now
}

// Name returns the job name
func (j *ExportJob) Name() string {
	return "journal_export"
}

// Run exports every owner. A failure for one owner does not stop the others;
// all failures are returned joined.
func (j *ExportJob) Run(ctx context.Context) error {
	if err := os.MkdirAll(j.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory '%s': %w", j.Dir, err)
	}
	owners, err := j.Source.Owners(ctx)
	if err != nil {
		return err
	}

	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	stamp := now().Format("2006-01-02")

	var errs []error
	written := 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(j.Dir, exportFileName(owner, stamp))
		if err := j.exportOwner(ctx, owner, path); err != nil {
			j.Log.Error().Err(err).Str("owner", owner).Msg("Export failed")
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			continue
		}
		written++
	}

	j.Log.Info().
		Int("owners", len(owners)).
		Int("written", written).
		Str("dir", j.Dir).
		Msg("Scheduled export finished")
	return errors.Join(errs...)
}

func (j *ExportJob) exportOwner(ctx context.Context, owner, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := j.Source.ExportCSV(ctx, owner, nil, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// exportFileName names an owner's snapshot. The readable part is lossy, so a
// short digest of the raw owner ID keeps distinct owners in distinct files.
func exportFileName(owner, stamp string) string {
	sum := sha256.Sum256([]byte(owner))
	return fmt.Sprintf("trades-%s-%s-%s.csv", safeName(owner), hex.EncodeToString(sum[:4]), stamp)
}

// safeName keeps owner IDs usable as file name parts.
func safeName(owner string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, owner)
}
