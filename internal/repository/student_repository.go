package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edudir/student-directory/internal/models"
)

// StudentRepository persists the whole student collection as one JSON file.
// Every write replaces the file as a unit; there are no partial updates.
type StudentRepository struct {
	path string
}

// NewStudentRepository constructs a repository over the given collection file.
func NewStudentRepository(path string) *StudentRepository {
	return &StudentRepository{path: path}
}

// InitializeIfAbsent creates an empty collection file on first boot. Idempotent:
// an existing file, whatever its content, is left untouched.
func (r *StudentRepository) InitializeIfAbsent() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat collection file: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create collection directory: %w", err)
		}
	}
	if err := r.writeAtomic([]byte("[]")); err != nil {
		return fmt.Errorf("initialize collection file: %w", err)
	}
	return nil
}

// Load reads the full collection. A missing file is an error once the store has
// been initialized; corruption surfaces as an error, never as a silent empty list.
func (r *StudentRepository) Load() ([]models.Student, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read collection file: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []models.Student{}, nil
	}
	var students []models.Student
	if err := json.Unmarshal(raw, &students); err != nil {
		return nil, fmt.Errorf("decode collection file: %w", err)
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Replace overwrites the entire persisted collection. The payload goes to a
// temporary file in the same directory and is renamed over the target, so a
// crash mid-write never leaves a torn file readable by a later Load.
func (r *StudentRepository) Replace(students []models.Student) error {
	if students == nil {
		students = []models.Student{}
	}
	payload, err := json.Marshal(students)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := r.writeAtomic(payload); err != nil {
		return fmt.Errorf("write collection file: %w", err)
	}
	return nil
}

// Path exposes the underlying collection file location.
func (r *StudentRepository) Path() string {
	return r.path
}

func (r *StudentRepository) writeAtomic(payload []byte) error {
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".students-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
