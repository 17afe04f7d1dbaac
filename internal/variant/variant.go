// Package variant holds the static per-variant configuration: board
// dimensions, piece alphabet, start position and NNUE weight file. The
// tables are embedded YAML loaded once at init; the set of variants is
// closed and the lookup is immutable.
package variant

import (
	_ "embed"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/fairy-xboard/internal/board"
)

//go:embed variants.yaml
var rawTables []byte

type Variant string

const (
	Chess   Variant = "chess"
	Janggi  Variant = "janggi"
	Xiangqi Variant = "xiangqi"
)

// Default is the variant the engine assumes before any `variant` command
// is sent; selecting it requires no command at all.
const Default = Chess

func (v Variant) String() string { return string(v) }

// Parse maps a user-supplied name to a known variant.
func Parse(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := tables[v]; !ok {
		return "", fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

type Info struct {
	Name     Variant
	Files    int
	Ranks    int
	StartFEN string
	NNUEFile string
	Alphabet board.Alphabet
}

type rawVariant struct {
	Files    int               `yaml:"files"`
	Ranks    int               `yaml:"ranks"`
	Start    string            `yaml:"start"`
	NNUE     string            `yaml:"nnue"`
	Alphabet map[string]string `yaml:"alphabet"`
}

type rawFile struct {
	Variants map[string]rawVariant `yaml:"variants"`
}

var tables map[Variant]Info

func init() {
	var err error
	tables, err = loadTables(rawTables)
	if err != nil {
		panic(fmt.Sprintf("variant tables: %v", err))
	}
}

func loadTables(raw []byte) (map[Variant]Info, error) {
	var file rawFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse variants.yaml: %w", err)
	}
	out := make(map[Variant]Info, len(file.Variants))
	for name, rv := range file.Variants {
		if rv.Files <= 0 || rv.Ranks <= 0 {
			return nil, fmt.Errorf("variant %s: bad dimensions %dx%d", name, rv.Files, rv.Ranks)
		}
		letters := make(map[rune]board.PieceType, len(rv.Alphabet))
		for letter, pieceName := range rv.Alphabet {
			runes := []rune(letter)
			if len(runes) != 1 {
				return nil, fmt.Errorf("variant %s: alphabet key %q is not a single letter", name, letter)
			}
			pt, ok := board.PieceTypeByName(pieceName)
			if !ok {
				return nil, fmt.Errorf("variant %s: unknown piece name %q", name, pieceName)
			}
			letters[runes[0]] = pt
		}
		alpha, err := board.NewAlphabet(letters)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", name, err)
		}
		out[Variant(name)] = Info{
			Name:     Variant(name),
			Files:    rv.Files,
			Ranks:    rv.Ranks,
			StartFEN: rv.Start,
			NNUEFile: rv.NNUE,
			Alphabet: alpha,
		}
	}
	return out, nil
}

// Lookup returns the immutable table entry for v.
func Lookup(v Variant) (Info, error) {
	info, ok := tables[v]
	if !ok {
		return Info{}, fmt.Errorf("unknown variant %q", v)
	}
	return info, nil
}

// All lists the supported variants.
func All() []Variant {
	out := make([]Variant, 0, len(tables))
	for v := range tables {
		out = append(out, v)
	}
	return out
}
