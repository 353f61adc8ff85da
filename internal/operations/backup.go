package operations

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/fsback/internal/copier"
	"github.com/kebairia/fsback/internal/ledger"
	"github.com/kebairia/fsback/internal/service"
)

// Backup copies every registered path into destination, reusing prior
// backup-folder assignments from the destination's ledger so re-runs are
// incremental. Per-entry failures are counted and never abort the batch;
// the ledger is written once at the end either way.
func (op *Operator) Backup(destination string) (Summary, error) {
	if op.store.Len() == 0 {
		return Summary{}, ErrNoPathsRegistered
	}

	dest := filepath.Clean(destination)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create backup destination %q: %w", dest, err)
	}

	prior := ledger.Load(dest)
	priorNames := prior.BackupNames()

	meta := ledger.Metadata{BackupDate: time.Now().Format(time.RFC3339)}
	recorded := make(map[string]bool) // expanded sources recorded this run

	var summary Summary
	var stoppedServices []string
	stoppedSet := make(map[string]bool)

	headLine.Fprintf(op.out, "=== backup -> %s ===\n", dest)

	for _, entry := range op.store.Entries() {
		expanded := entry.Expanded()

		// A running service holding the path open must be down before
		// the copy; on stop failure the entry is skipped entirely.
		if entry.Service != "" {
			if op.services.Status(entry.Service) == service.StateRunning {
				if !op.services.Stop(entry.Service, op.serviceTimeout) {
					failLine.Fprintf(op.out, "[failed] service %s did not stop, skipping %s\n",
						entry.Service, expanded)
					op.log.Error("service stop failed",
						"service", entry.Service, "path", expanded)
					summary.Failed++
					continue
				}
				if !stoppedSet[entry.Service] {
					stoppedSet[entry.Service] = true
					stoppedServices = append(stoppedServices, entry.Service)
				}
			}
		}

		info, err := os.Stat(expanded)
		if err != nil {
			skipLine.Fprintf(op.out, "[skipped] path does not exist: %s\n", entry.Path)
			if entry.Path != expanded {
				skipLine.Fprintf(op.out, "          -> %s\n", expanded)
			}
			summary.Failed++
			continue
		}

		name := ledger.ResolveBackupName(expanded, priorNames, entry.Destination)
		target := filepath.Join(dest, name)

		mode := "backup"
		if _, err := os.Stat(target); err == nil {
			mode = "incremental"
		}
		if len(entry.Exclude) > 0 {
			fmt.Fprintf(op.out, "[%s] %s -> %s (exclude: %v)\n", mode, expanded, name, entry.Exclude)
		} else {
			fmt.Fprintf(op.out, "[%s] %s -> %s\n", mode, expanded, name)
		}

		if err := copier.New(entry.Exclude).CopyItem(expanded, target); err != nil {
			failLine.Fprintf(op.out, "[failed] %s: %v\n", expanded, err)
			op.log.Error("copy failed", "source", expanded, "error", err)
			summary.Failed++
			continue
		}

		recordType := ledger.TypeDirectory
		if !info.IsDir() {
			recordType = ledger.TypeFile
		}
		meta.Paths = append(meta.Paths, ledger.PathRecord{
			Source:         entry.Path,
			SourceExpanded: expanded,
			Backup:         name,
			Type:           recordType,
			Service:        entry.Service,
			Exclude:        entry.Exclude,
		})
		recorded[expanded] = true

		okLine.Fprintf(op.out, "[done] %s\n", expanded)
		summary.Succeeded++
	}

	// Restart what this run stopped, each service exactly once.
	for _, name := range stoppedServices {
		op.services.Start(name, op.serviceTimeout)
	}

	// Items that failed this run but were backed up before stay in the
	// ledger from the prior load, so their folders remain restorable.
	for _, record := range prior.Paths {
		if !recorded[record.SourceExpanded] {
			meta.Paths = append(meta.Paths, record)
		}
	}

	if err := ledger.Save(dest, meta); err != nil {
		return summary, fmt.Errorf("save ledger: %w", err)
	}

	op.printSummary(summary)
	return summary, nil
}
