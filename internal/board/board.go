package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type Side int8

const (
	NoSide Side = -1
	White  Side = 0
	Black  Side = 1
)

func (s Side) Other() Side {
	switch s {
	case White:
		return Black
	case Black:
		return White
	}
	return NoSide
}

func (s Side) String() string {
	switch s {
	case White:
		return "w"
	case Black:
		return "b"
	}
	return "-"
}

type PieceType int8

const (
	NoPiece PieceType = iota
	King
	Advisor
	Elephant
	Horse
	Chariot
	Cannon
	Pawn
	Queen
	Rook
	Knight
	Bishop
)

var pieceTypeNames = map[string]PieceType{
	"king":     King,
	"advisor":  Advisor,
	"elephant": Elephant,
	"horse":    Horse,
	"chariot":  Chariot,
	"cannon":   Cannon,
	"pawn":     Pawn,
	"queen":    Queen,
	"rook":     Rook,
	"knight":   Knight,
	"bishop":   Bishop,
}

// PieceTypeByName resolves the names used in the variant tables.
func PieceTypeByName(name string) (PieceType, bool) {
	pt, ok := pieceTypeNames[strings.ToLower(strings.TrimSpace(name))]
	return pt, ok
}

// Piece packs side and type: 0 empty, positive white, negative black.
type Piece int8

func MakePiece(side Side, pt PieceType) Piece {
	if pt == NoPiece || side == NoSide {
		return 0
	}
	if side == White {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	switch {
	case p == 0:
		return NoSide
	case p > 0:
		return White
	}
	return Black
}

// Alphabet is the bidirectional mapping between serialized piece letters
// (lowercase) and piece types for one variant.
type Alphabet struct {
	toType map[rune]PieceType
	toRune map[PieceType]rune
}

func NewAlphabet(letters map[rune]PieceType) (Alphabet, error) {
	a := Alphabet{
		toType: make(map[rune]PieceType, len(letters)),
		toRune: make(map[PieceType]rune, len(letters)),
	}
	for r, pt := range letters {
		lower := unicode.ToLower(r)
		if pt == NoPiece {
			return Alphabet{}, fmt.Errorf("letter %q maps to no piece", lower)
		}
		if _, dup := a.toRune[pt]; dup {
			return Alphabet{}, fmt.Errorf("piece type %d has two letters", pt)
		}
		a.toType[lower] = pt
		a.toRune[pt] = lower
	}
	return a, nil
}

func (a Alphabet) Type(letter rune) (PieceType, bool) {
	pt, ok := a.toType[unicode.ToLower(letter)]
	return pt, ok
}

func (a Alphabet) Letter(pt PieceType) (rune, bool) {
	r, ok := a.toRune[pt]
	return r, ok
}

var (
	ErrInvalidFEN      = errors.New("invalid position string")
	ErrOutOfBounds     = errors.New("coordinates outside the board")
	ErrNoPieceAtSource = errors.New("no piece at source cell")
	ErrUnexpectedTurn  = errors.New("piece does not belong to the side to move")
	ErrCaptureOwnPiece = errors.New("destination holds a piece of the same side")
)

// Position is a decoded board: row-major cells with row 0 the top rank as
// written in the serialized form (rank == Ranks).
type Position struct {
	Files, Ranks int
	Cells        []Piece
	SideToMove   Side
	HalfMove     int
	FullMove     int
	Alphabet     Alphabet
}

// NewPosition returns an empty board with white to move.
func NewPosition(files, ranks int, a Alphabet) *Position {
	return &Position{
		Files:      files,
		Ranks:      ranks,
		Cells:      make([]Piece, files*ranks),
		SideToMove: White,
		FullMove:   1,
		Alphabet:   a,
	}
}

func (p *Position) index(row, col int) int { return row*p.Files + col }

// At reads the cell addressed by file index and 1-based rank.
func (p *Position) At(file, rank int) Piece {
	return p.Cells[p.index(p.Ranks-rank, file)]
}

func (p *Position) set(file, rank int, pc Piece) {
	p.Cells[p.index(p.Ranks-rank, file)] = pc
}

func (p *Position) inBounds(file, rank int) bool {
	return file >= 0 && file < p.Files && rank >= 1 && rank <= p.Ranks
}

// Decode parses a FEN-like string for a files×ranks board using the given
// alphabet. Row widths are enforced strictly: a short or overlong row fails.
func Decode(s string, files, ranks int, a Alphabet) (*Position, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: want at least board and side fields", ErrInvalidFEN)
	}

	rows := strings.Split(fields[0], "/")
	if len(rows) != ranks {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrInvalidFEN, len(rows), ranks)
	}

	pos := NewPosition(files, ranks, a)
	for r, row := range rows {
		col := 0
		run := 0
		for _, ch := range row {
			if ch >= '0' && ch <= '9' {
				run = run*10 + int(ch-'0')
				continue
			}
			col += run
			run = 0
			if col >= files {
				return nil, fmt.Errorf("%w: row %d overflows %d files", ErrInvalidFEN, r, files)
			}
			pt, ok := a.Type(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece letter %q", ErrInvalidFEN, ch)
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = White
			}
			pos.Cells[pos.index(r, col)] = MakePiece(side, pt)
			col++
		}
		col += run
		if col != files {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidFEN, r, col, files)
		}
	}

	switch fields[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side field %q", ErrInvalidFEN, fields[1])
	}

	// Fields 3 and 4 (castling, en passant) are placeholders for the
	// variants handled here; 5 and 6 are the clocks.
	if len(fields) >= 5 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: halfmove field %q", ErrInvalidFEN, fields[4])
		}
		pos.HalfMove = n
	}
	if len(fields) >= 6 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: fullmove field %q", ErrInvalidFEN, fields[5])
		}
		pos.FullMove = n
	}
	return pos, nil
}

// Encode is the inverse of Decode. Encode(Decode(s)) == s holds for
// well-formed six-field strings whose pieces are covered by the alphabet.
func (p *Position) Encode() string {
	var sb strings.Builder
	for r := 0; r < p.Ranks; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < p.Files; c++ {
			pc := p.Cells[p.index(r, c)]
			if pc == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			letter, ok := p.Alphabet.Letter(pc.Type())
			if !ok {
				letter = '?'
			}
			if pc.Side() == White {
				letter = unicode.ToUpper(letter)
			}
			sb.WriteRune(letter)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	fmt.Fprintf(&sb, " %s - - %d %d", p.SideToMove, p.HalfMove, p.FullMove)
	return sb.String()
}

// Check reports the advisory violations for m without applying it: moving
// out of turn and capturing one's own piece. Apply never enforces these.
func (p *Position) Check(m Move) error {
	if !p.inBounds(m.FromFile, m.FromRank) || !p.inBounds(m.ToFile, m.ToRank) {
		return ErrOutOfBounds
	}
	from := p.At(m.FromFile, m.FromRank)
	if from == 0 {
		return ErrNoPieceAtSource
	}
	if from.Side() != p.SideToMove {
		return ErrUnexpectedTurn
	}
	if to := p.At(m.ToFile, m.ToRank); to != 0 && to.Side() == from.Side() {
		return ErrCaptureOwnPiece
	}
	return nil
}

// Apply performs m structurally: source must be occupied and both cells in
// bounds; any destination occupant is captured by overwrite. Legality per
// game rules is the engine's concern, not this codec's. The full-move
// counter advances only when the first side is on move again.
func (p *Position) Apply(m Move) error {
	if !p.inBounds(m.FromFile, m.FromRank) || !p.inBounds(m.ToFile, m.ToRank) {
		return ErrOutOfBounds
	}
	moved := p.At(m.FromFile, m.FromRank)
	if moved == 0 {
		return ErrNoPieceAtSource
	}
	captured := p.At(m.ToFile, m.ToRank)

	if m.Promotion != 0 {
		if pt, ok := p.Alphabet.Type(m.Promotion); ok {
			moved = MakePiece(moved.Side(), pt)
		}
	}
	p.set(m.FromFile, m.FromRank, 0)
	p.set(m.ToFile, m.ToRank, moved)

	if captured != 0 || moved.Type() == Pawn {
		p.HalfMove = 0
	} else {
		p.HalfMove++
	}
	p.SideToMove = p.SideToMove.Other()
	if p.SideToMove == White {
		p.FullMove++
	}
	return nil
}
