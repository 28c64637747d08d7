package nested

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v3"
)

// Record is stored inside a disabled metadata directory while it is
// neutralized. It names the directory to restore.
type Record struct {
	Original      string    `yaml:"original"`
	NeutralizedAt time.Time `yaml:"neutralized_at"`
	PID           int       `yaml:"pid"`
}

func writeRecord(dir string, rec Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode neutralization record")
	}
	return os.WriteFile(filepath.Join(dir, RecordFile), data, 0o644)
}

// readRecord loads the record from a disabled directory. A missing or
// unreadable record falls back to restoring the default metadata name.
func readRecord(dir string) (Record, error) {
	rec := Record{Original: MetadataName}

	data, err := os.ReadFile(filepath.Join(dir, RecordFile))
	if err != nil {
		if os.IsNotExist(err) {
			return rec, nil
		}
		return rec, errors.Wrap(err, "failed to read neutralization record")
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{Original: MetadataName}, errors.Wrap(err, "failed to decode neutralization record")
	}

	// Only a plain sibling name is acceptable.
	if rec.Original == "" || rec.Original != filepath.Base(rec.Original) ||
		strings.ContainsAny(rec.Original, `/\`) || rec.Original == "." || rec.Original == ".." {
		rec.Original = MetadataName
	}
	return rec, nil
}
