// Package ledger persists the provenance record that lives inside every
// backup destination: which source path landed in which backup folder,
// what type it was, and what service and exclude set it carried.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Filename is the ledger file kept at the root of a backup destination.
const Filename = "backup_metadata.json"

// PathRecord describes one backed-up item.
type PathRecord struct {
	// Source is the path exactly as registered, environment references
	// unexpanded, so a restore on a different account re-resolves them.
	Source string `json:"source"`
	// SourceExpanded is the canonical form the backup actually read from.
	SourceExpanded string `json:"source_expanded"`
	// Backup is the folder (or file) name under the destination root.
	Backup string `json:"backup"`
	// Type is "file" or "directory".
	Type    string   `json:"type"`
	Service string   `json:"service,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// Record types.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Metadata is the full ledger document. It is overwritten wholesale at
// the end of every successful backup run.
type Metadata struct {
	BackupDate string       `json:"backup_date"`
	Paths      []PathRecord `json:"paths"`
}

// Load reads the ledger under dir. A missing or unparseable file yields
// an empty Metadata: a corrupted ledger degrades to a fresh, full backup
// instead of aborting the run.
func Load(dir string) Metadata {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		return Metadata{}
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}
	}
	return meta
}

// Exists reports whether a ledger file is present under dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, Filename))
	return err == nil
}

// Save writes the ledger under dir via a temp file and rename, so a crash
// mid-write never leaves a truncated ledger behind.
func Save(dir string, meta Metadata) error {
	tmp, err := os.CreateTemp(dir, Filename+".*")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(meta); err != nil {
		tmp.Close()
		return fmt.Errorf("encode ledger JSON: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, Filename)); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

// BackupNames maps each record's expanded source to its backup folder
// name. Backup consults it so re-runs keep their prior assignments.
func (m Metadata) BackupNames() map[string]string {
	names := make(map[string]string, len(m.Paths))
	for _, record := range m.Paths {
		names[record.SourceExpanded] = record.Backup
	}
	return names
}

// ResolveBackupName picks the folder name for an expanded source path.
// Precedence: a fixed destination name from the registration entry, then
// the assignment recorded by a previous run, then a synthesized
// <parent>_<leaf> name that keeps same-leaf sources from colliding.
func ResolveBackupName(expanded string, existing map[string]string, fixed string) string {
	if fixed != "" {
		return fixed
	}
	if name, ok := existing[expanded]; ok {
		return name
	}
	leaf := filepath.Base(expanded)
	parent := filepath.Base(filepath.Dir(expanded))
	return fmt.Sprintf("%s_%s", parent, leaf)
}

// Locate resolves the user-supplied restore path to a backup root and an
// optional target folder name. A ledger directly under the path means a
// full restore from there; a ledger under its parent means the user
// pointed at one backed-up item, selecting just that folder.
func Locate(userPath string) (root, target string) {
	userPath = filepath.Clean(userPath)
	if Exists(userPath) {
		return userPath, ""
	}
	parent := filepath.Dir(userPath)
	if Exists(parent) {
		return parent, filepath.Base(userPath)
	}
	return userPath, ""
}
