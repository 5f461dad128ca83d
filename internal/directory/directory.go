package directory

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/go-yaml/yaml"

	"wedding-invitation/internal/models"
)

// ErrNameNotFound is returned when a name has no entry in the directory
var ErrNameNotFound = errors.New("name not found in guest directory")

//go:embed guests.yaml
var defaultGuestList []byte

// Directory is the immutable guest table. It is safe for concurrent use.
type Directory struct {
	byKey map[string]models.GuestRecord
}

// New builds a directory from records, rejecting anything that would make
// lookups ambiguous or records invalid.
func New(records []models.GuestRecord) (*Directory, error) {
	d := &Directory{byKey: make(map[string]models.GuestRecord, len(records))}

	for _, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("guest record with empty name")
		}
		if r.GuestCount < 1 {
			return nil, fmt.Errorf("guest %q: guest count must be at least 1, got %d", r.Name, r.GuestCount)
		}
		if _, err := models.ParseInvitedTo(string(r.InvitedTo)); err != nil {
			return nil, fmt.Errorf("guest %q: %w", r.Name, err)
		}

		key := lookupKey(r.Name)
		if existing, ok := d.byKey[key]; ok {
			return nil, fmt.Errorf("guest %q duplicates %q", r.Name, existing.Name)
		}
		d.byKey[key] = r
	}

	return d, nil
}

// Default builds the directory from the guest list compiled into the binary
func Default() (*Directory, error) {
	return parse(defaultGuestList, ".yaml")
}

// Load reads a guest list from a YAML or JSON file
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest list: %w", err)
	}
	return parse(data, strings.ToLower(filepath.Ext(path)))
}

func parse(data []byte, ext string) (*Directory, error) {
	var records []models.GuestRecord

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guest list: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal guest list: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported guest list format %q", ext)
	}

	return New(records)
}

// Lookup resolves a raw, possibly percent-encoded name. The returned record
// carries the canonical stored name, not the caller's spelling.
func (d *Directory) Lookup(rawName string) (models.GuestRecord, error) {
	if rawName == "" {
		return models.GuestRecord{}, ErrNameNotFound
	}

	name := rawName
	if decoded, err := url.PathUnescape(rawName); err == nil {
		name = decoded
	}

	key := lookupKey(name)
	if key == "" {
		return models.GuestRecord{}, ErrNameNotFound
	}

	r, ok := d.byKey[key]
	if !ok {
		return models.GuestRecord{}, ErrNameNotFound
	}
	return r, nil
}

// Len returns the number of guests
func (d *Directory) Len() int {
	return len(d.byKey)
}

// Records returns every guest sorted by name
func (d *Directory) Records() []models.GuestRecord {
	records := make([]models.GuestRecord, 0, len(d.byKey))
	for _, r := range d.byKey {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records
}

// ReceiptKey is the storage key for a guest's RSVP receipt: lower-cased,
// with each run of whitespace replaced by an underscore.
func ReceiptKey(name string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), "_")
}

func lookupKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
