package board

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedToken = errors.New("malformed move token")

// Move is a coordinate move: file indices from 0, ranks from 1. Ranks can be
// two digits (rank 10 on a Janggi board), so the textual form has no fixed
// width. Promotion is the optional trailing piece letter, 0 when absent.
type Move struct {
	FromFile, FromRank int
	ToFile, ToRank     int
	Promotion          rune
}

func (m Move) String() string {
	s := fmt.Sprintf("%c%d%c%d", 'a'+m.FromFile, m.FromRank, 'a'+m.ToFile, m.ToRank)
	if m.Promotion != 0 {
		s += string(m.Promotion)
	}
	return s
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func fileIndex(b byte, files int) (int, error) {
	if b < 'a' || b > 'z' {
		return 0, ErrMalformedToken
	}
	idx := int(b - 'a')
	if idx >= files {
		return 0, ErrOutOfBounds
	}
	return idx, nil
}

// ParseMove parses `<file><rank><file><rank>[promotion]` for a files×ranks
// board. The split between the first rank and the second file cannot sit at
// a fixed offset: the scan advances past digits until the next file letter.
func ParseMove(token string, files, ranks int) (Move, error) {
	if len(token) < 4 {
		return Move{}, ErrMalformedToken
	}

	fromFile, err := fileIndex(token[0], files)
	if err != nil {
		return Move{}, err
	}

	i := 1
	for i < len(token) && isDigit(token[i]) {
		i++
	}
	if i == 1 || i >= len(token) {
		return Move{}, ErrMalformedToken
	}
	fromRank, err := strconv.Atoi(token[1:i])
	if err != nil {
		return Move{}, ErrMalformedToken
	}

	toFile, err := fileIndex(token[i], files)
	if err != nil {
		return Move{}, err
	}

	j := i + 1
	for j < len(token) && isDigit(token[j]) {
		j++
	}
	if j == i+1 {
		return Move{}, ErrMalformedToken
	}
	toRank, err := strconv.Atoi(token[i+1 : j])
	if err != nil {
		return Move{}, ErrMalformedToken
	}

	var promotion rune
	switch {
	case j == len(token):
	case j == len(token)-1 && token[j] >= 'a' && token[j] <= 'z':
		promotion = rune(token[j])
	default:
		return Move{}, ErrMalformedToken
	}

	if fromRank < 1 || fromRank > ranks || toRank < 1 || toRank > ranks {
		return Move{}, ErrOutOfBounds
	}
	return Move{
		FromFile:  fromFile,
		FromRank:  fromRank,
		ToFile:    toFile,
		ToRank:    toRank,
		Promotion: promotion,
	}, nil
}
