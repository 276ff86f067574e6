package instance

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"scribl/internal/export"
)

// TextTimestampLayout is the timestamp layout of metadata and annotations.
const TextTimestampLayout = "15:04:05 01-02-2006"

const initializedPrefix = "Initialized:"

// SetMetadata writes metadata.txt and starts annotations.txt. An existing
// metadata file is kept unless overwrite is set; the result reports whether
// anything was written.
func (i *Instance) SetMetadata(name, curator, description string, overwrite bool) (bool, error) {
	metadataPath := i.path(ConfigDir, MetadataFile)
	if _, err := os.Stat(metadataPath); err == nil && !overwrite {
		return false, nil
	}

	now := i.now().Format(TextTimestampLayout)
	metadata := fmt.Sprintf("Created: %s\nCurator: %s\nDB Name: %s\nSummary: %s\n",
		now, oneLine(curator), oneLine(name), oneLine(description))
	if err := os.WriteFile(metadataPath, []byte(metadata), 0o644); err != nil {
		return false, fmt.Errorf("writing metadata: %w", err)
	}
	annotations := fmt.Sprintf("%s %s\n", initializedPrefix, now)
	if err := os.WriteFile(i.path(ConfigDir, AnnotationsFile), []byte(annotations), 0o644); err != nil {
		return false, fmt.Errorf("writing annotations: %w", err)
	}
	return true, nil
}

// AddAnnotation appends a curator note to annotations.txt.
func (i *Instance) AddAnnotation(author, text string) error {
	f, err := os.OpenFile(i.path(ConfigDir, AnnotationsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening annotations: %w", err)
	}
	defer f.Close()

	note := fmt.Sprintf("%s: %s: %s\n", oneLine(author), i.now().Format(TextTimestampLayout), oneLine(text))
	if _, err := f.WriteString(note); err != nil {
		return fmt.Errorf("writing annotation: %w", err)
	}
	return nil
}

// Metadata reads metadata.txt and annotations.txt.
func (i *Instance) Metadata() (*export.Metadata, error) {
	lines, err := readLines(i.path(ConfigDir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	m := &export.Metadata{}
	for _, line := range lines {
		label, value, _ := strings.Cut(line, ": ")
		switch label {
		case "Created":
			m.Created = value
		case "Curator":
			m.Curator = value
		case "DB Name":
			m.Name = value
		case "Summary":
			m.Summary = value
		}
	}

	notes, err := readLines(i.path(ConfigDir, AnnotationsFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}
	m.Annotations = []string{}
	for n, note := range notes {
		if n == 0 && strings.HasPrefix(note, initializedPrefix) {
			m.Initialized = strings.TrimSpace(strings.TrimPrefix(note, initializedPrefix))
			continue
		}
		if note != "" {
			m.Annotations = append(m.Annotations, note)
		}
	}
	return m, nil
}

// MetadataCypher renders the metadata as Cypher statements.
func (i *Instance) MetadataCypher() ([]string, error) {
	m, err := i.Metadata()
	if err != nil {
		return nil, err
	}
	return export.MetadataCypher(*m), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	return lines, scanner.Err()
}

// oneLine keeps user text from breaking the line-oriented files.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
