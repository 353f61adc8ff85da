package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kebairia/fsback/internal/copier"
	"github.com/kebairia/fsback/internal/ledger"
	"github.com/kebairia/fsback/internal/pathutil"
	"github.com/kebairia/fsback/internal/service"
)

// restoreGroup is one service's worth of records; records without a
// service share a single group with an empty name.
type restoreGroup struct {
	service string
	records []ledger.PathRecord
}

// Restore puts backed-up items back at their original locations.
// inputPath may point at a backup root (full restore) or at one
// backed-up item inside it (selective restore); the ledger location
// decides which. Nothing is touched before the confirmation prompt.
func (op *Operator) Restore(inputPath string) (Summary, error) {
	root, target := ledger.Locate(inputPath)
	if !ledger.Exists(root) {
		return Summary{}, fmt.Errorf("%w: %s", ErrNoLedger, filepath.Join(root, ledger.Filename))
	}
	meta := ledger.Load(root)

	records := meta.Paths
	if target != "" {
		var filtered []ledger.PathRecord
		for _, record := range records {
			if record.Backup == target {
				filtered = append(filtered, record)
			}
		}
		if len(filtered) == 0 {
			available := make([]string, 0, len(records))
			for _, record := range records {
				available = append(available, record.Backup)
			}
			return Summary{}, fmt.Errorf("%w: %q (available: %s)",
				ErrTargetNotFound, target, strings.Join(available, ", "))
		}
		fmt.Fprintf(op.out, "[detected] restoring only %q\n", target)
		records = filtered
	}

	headLine.Fprintf(op.out, "=== restore from %s ===\n", root)
	fmt.Fprintf(op.out, "backup date: %s\n", meta.BackupDate)
	fmt.Fprintf(op.out, "items to restore: %d\n", len(records))

	warnLine.Fprintln(op.out, "warning: existing files will be overwritten!")
	if !op.confirm("Continue?") {
		fmt.Fprintln(op.out, "restore cancelled")
		return Summary{}, ErrRestoreCancelled
	}

	var summary Summary
	for _, group := range groupByService(records) {
		// Stop the group's service only if it is observed running, and
		// remember that so it is restarted only when this run paused it.
		wasRunning := false
		if group.service != "" {
			if op.services.Status(group.service) == service.StateRunning {
				wasRunning = true
				if !op.services.Stop(group.service, op.serviceTimeout) {
					failLine.Fprintf(op.out, "[failed] service %s did not stop, skipping %d item(s)\n",
						group.service, len(group.records))
					op.log.Error("service stop failed", "service", group.service)
					summary.Failed += len(group.records)
					continue
				}
			}
		}

		for _, record := range group.records {
			backupItem := filepath.Join(root, record.Backup)
			if _, err := os.Stat(backupItem); err != nil {
				skipLine.Fprintf(op.out, "[skipped] backup item missing: %s\n", backupItem)
				summary.Failed++
				continue
			}

			// Environment references resolve against the current
			// system, not the one the backup was taken on.
			destination := pathutil.Expand(record.Source)
			fmt.Fprintf(op.out, "[restoring] %s\n", destination)

			if err := op.restoreItem(backupItem, destination, record.Type); err != nil {
				failLine.Fprintf(op.out, "[failed] %s: %v\n", destination, err)
				op.log.Error("restore failed",
					"backup", record.Backup, "destination", destination, "error", err)
				summary.Failed++
				continue
			}
			okLine.Fprintf(op.out, "[done] %s\n", destination)
			summary.Succeeded++
		}

		if group.service != "" && wasRunning {
			op.services.Start(group.service, op.serviceTimeout)
		}
	}

	op.printSummary(summary)
	return summary, nil
}

// restoreItem replaces whatever sits at destination with the backed-up
// item. Unlike backup, a directory restore is a fresh copy, not a merge.
func (op *Operator) restoreItem(backupItem, destination, itemType string) error {
	if info, err := os.Lstat(destination); err == nil {
		if info.IsDir() {
			if err := os.RemoveAll(destination); err != nil {
				return fmt.Errorf("remove %q: %w", destination, err)
			}
		} else if err := os.Remove(destination); err != nil {
			return fmt.Errorf("remove %q: %w", destination, err)
		}
	}
	if itemType == ledger.TypeFile {
		if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", filepath.Dir(destination), err)
		}
	}
	return copier.New(nil).CopyItem(backupItem, destination)
}

// groupByService buckets records by their service, preserving the order
// in which each service (or the empty no-service bucket) first appears.
// Grouping keeps a shared service down for one stop/start cycle instead
// of one per record.
func groupByService(records []ledger.PathRecord) []restoreGroup {
	var groups []restoreGroup
	index := make(map[string]int)
	for _, record := range records {
		i, ok := index[record.Service]
		if !ok {
			i = len(groups)
			index[record.Service] = i
			groups = append(groups, restoreGroup{service: record.Service})
		}
		groups[i].records = append(groups[i].records, record)
	}
	return groups
}
