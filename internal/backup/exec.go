package backup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// MongoToolsExecutor shells out to mongodump/mongorestore. Credentials ride
// in the URI so they never appear in the process argument list.
type MongoToolsExecutor struct {
	URI      string
	Database string
}

func (e *MongoToolsExecutor) Dump(ctx context.Context, outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, "mongodump",
		"--uri", e.URI,
		"--db", e.Database,
		"--out", outDir,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mongodump: %w: %s", err, out)
	}
	return nil
}

func (e *MongoToolsExecutor) Restore(ctx context.Context, dumpDir string) error {
	src := filepath.Join(dumpDir, e.Database)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("backup payload missing: %w", err)
	}
	cmd := exec.CommandContext(ctx, "mongorestore",
		"--uri", e.URI,
		"--db", e.Database,
		"--drop",
		src,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("mongorestore: %w: %s", err, out)
	}
	return nil
}
