package sanctions

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	euFile       = "eu_sanctions.csv"
	ofacFile     = "ofac_sdn.csv"
	unFile       = "un_sanctions.xml"
	combinedFile = "sanctions_combined.json"
)

// Builder accumulates names from several list formats.
type Builder struct {
	entities    map[string]struct{}
	individuals map[string]struct{}
	sources     map[string]int
}

func NewBuilder() *Builder {
	return &Builder{
		entities:    map[string]struct{}{},
		individuals: map[string]struct{}{},
		sources:     map[string]int{},
	}
}

func (b *Builder) addEntity(name string) bool {
	if n := normalize(name); n != "" {
		b.entities[n] = struct{}{}
		return true
	}
	return false
}

func (b *Builder) addIndividual(name string) bool {
	if n := normalize(name); n != "" {
		b.individuals[n] = struct{}{}
		return true
	}
	return false
}

func (b *Builder) Lists() Lists {
	return Lists{
		Entities:    sortedKeys(b.entities),
		Individuals: sortedKeys(b.individuals),
		Sources:     b.sources,
	}
}

// AddEU reads the EU consolidated CSV export (semicolon separated). The
// first column whose header mentions "name" holds the subject name.
func (b *Builder) AddEU(r io.Reader) error {
	rows, header, err := readCSV(r, ';')
	if err != nil {
		return fmt.Errorf("eu sanctions: %w", err)
	}

	nameCol := -1
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "name") {
			nameCol = i
			break
		}
	}
	if nameCol < 0 {
		return errors.New("eu sanctions: no name column")
	}
	typeCol := columnIndex(header, "subject_type", "type")

	count := 0
	for _, row := range rows {
		name := field(row, nameCol)
		lower := normalize(name)
		kind := strings.ToLower(field(row, typeCol))
		isEntity := strings.Contains(kind, "enterprise") || strings.Contains(kind, "entity") ||
			strings.Contains(lower, "ltd") || strings.Contains(lower, "inc")

		added := false
		if isEntity {
			added = b.addEntity(name)
		} else {
			added = b.addIndividual(name)
		}
		if added {
			count++
		}
	}
	b.sources[SourceEU] += count
	return nil
}

// AddOFAC reads an OFAC SDN CSV with name and type (or SDN_Type) columns.
func (b *Builder) AddOFAC(r io.Reader) error {
	rows, header, err := readCSV(r, ',')
	if err != nil {
		return fmt.Errorf("ofac sanctions: %w", err)
	}

	nameCol := columnIndex(header, "name")
	if nameCol < 0 {
		return errors.New("ofac sanctions: no name column")
	}
	typeCol := columnIndex(header, "type", "sdn_type")

	count := 0
	for _, row := range rows {
		name := field(row, nameCol)
		var added bool
		if strings.Contains(strings.ToLower(field(row, typeCol)), "individual") {
			added = b.addIndividual(name)
		} else {
			added = b.addEntity(name)
		}
		if added {
			count++
		}
	}
	b.sources[SourceOFAC] += count
	return nil
}

type unList struct {
	Individuals []struct {
		First  string `xml:"FIRST_NAME"`
		Second string `xml:"SECOND_NAME"`
		Third  string `xml:"THIRD_NAME"`
	} `xml:"INDIVIDUALS>INDIVIDUAL"`
	Entities []struct {
		Name string `xml:"FIRST_NAME"`
	} `xml:"ENTITIES>ENTITY"`
}

// AddUN reads the UN Security Council consolidated XML list. Entities carry
// their name in FIRST_NAME.
func (b *Builder) AddUN(r io.Reader) error {
	var list unList
	if err := xml.NewDecoder(r).Decode(&list); err != nil {
		return fmt.Errorf("un sanctions: %w", err)
	}

	count := 0
	for _, ind := range list.Individuals {
		var parts []string
		for _, p := range []string{ind.First, ind.Second, ind.Third} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if b.addIndividual(strings.Join(parts, " ")) {
			count++
		}
	}
	for _, ent := range list.Entities {
		if b.addEntity(ent.Name) {
			count++
		}
	}
	b.sources[SourceUN] += count
	return nil
}

// LoadDir prefers a combined JSON snapshot in dir. Without one it parses
// whichever of the EU, OFAC and UN source files are present; a missing file
// is skipped, a malformed one is an error.
func LoadDir(dir string) (Lists, error) {
	if f, err := os.Open(filepath.Join(dir, combinedFile)); err == nil {
		defer f.Close()
		var lists Lists
		if err := json.NewDecoder(f).Decode(&lists); err != nil {
			return Lists{}, fmt.Errorf("decode %s: %w", combinedFile, err)
		}
		return lists, nil
	}

	b := NewBuilder()
	loaders := []struct {
		file string
		add  func(io.Reader) error
	}{
		{euFile, b.AddEU},
		{ofacFile, b.AddOFAC},
		{unFile, b.AddUN},
	}

	for _, l := range loaders {
		f, err := os.Open(filepath.Join(dir, l.file))
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("sanctions list not found", "file", l.file, "dir", dir)
			continue
		}
		if err != nil {
			return Lists{}, fmt.Errorf("open %s: %w", l.file, err)
		}
		err = l.add(f)
		f.Close()
		if err != nil {
			return Lists{}, err
		}
	}

	lists := b.Lists()
	slog.Info("sanctions lists loaded",
		"entities", len(lists.Entities),
		"individuals", len(lists.Individuals))
	return lists, nil
}

// SaveCombined writes lists as the JSON snapshot LoadDir prefers.
func SaveCombined(dir string, lists Lists) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	raw, err := json.MarshalIndent(lists, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sanctions: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, combinedFile), raw, 0o644)
}

func readCSV(r io.Reader, sep rune) ([][]string, []string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("empty file")
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return records[1:], header, nil
}

func columnIndex(header []string, names ...string) int {
	for _, want := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
