package voltorb

import (
	"fmt"
	"strings"

	"chat-minigame-bot/internal/pkg/random"
)

// Size is the number of rows and columns.
const Size = 5

// Layout controls how many of each tile a board gets. Tiles not covered by
// the counts are 1s.
type Layout struct {
	Voltorbs int
	Twos     int
	Threes   int
}

// DefaultLayout is a level 1 Voltorb Flip board.
var DefaultLayout = Layout{Voltorbs: 6, Twos: 3, Threes: 1}

// Coord is a tile position.
type Coord struct {
	Row, Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("%c%d", 'A'+c.Col, c.Row+1)
}

// ParseCoord reads a coordinate like "B3" (column letter, row number).
// The reversed form "3B" is accepted too.
func ParseCoord(s string) (Coord, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 2 {
		return Coord{}, false
	}
	col, row := s[0], s[1]
	if col >= '1' && col <= '9' {
		col, row = row, col
	}
	c := Coord{Row: int(row - '1'), Col: int(col - 'A')}
	if c.Row < 0 || c.Row >= Size || c.Col < 0 || c.Col >= Size {
		return Coord{}, false
	}
	return c, true
}

// Board is a Voltorb Flip grid. A tile value of 0 is a Voltorb.
type Board struct {
	tiles   [Size][Size]int
	flipped [Size][Size]bool
}

// NewBoard lays out tiles at random.
func NewBoard(layout Layout, rng *random.Source) *Board {
	values := make([]int, 0, Size*Size)
	for i := 0; i < layout.Voltorbs; i++ {
		values = append(values, 0)
	}
	for i := 0; i < layout.Twos; i++ {
		values = append(values, 2)
	}
	for i := 0; i < layout.Threes; i++ {
		values = append(values, 3)
	}
	for len(values) < Size*Size {
		values = append(values, 1)
	}
	values = values[:Size*Size]

	b := &Board{}
	for i, p := range rng.Perm(Size * Size) {
		b.tiles[p/Size][p%Size] = values[i]
	}
	return b
}

// Flip turns a tile over and returns its value.
func (b *Board) Flip(c Coord) int {
	b.flipped[c.Row][c.Col] = true
	return b.tiles[c.Row][c.Col]
}

// Flipped reports whether the tile is face up.
func (b *Board) Flipped(c Coord) bool {
	return b.flipped[c.Row][c.Col]
}

// Cleared reports whether every 2 and 3 is face up.
func (b *Board) Cleared() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.tiles[r][c] >= 2 && !b.flipped[r][c] {
				return false
			}
		}
	}
	return true
}

// Coins returns the product of all flipped tile values.
func (b *Board) Coins() int {
	coins, seen := 1, false
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.flipped[r][c] {
				coins *= b.tiles[r][c]
				seen = true
			}
		}
	}
	if !seen {
		return 0
	}
	return coins
}

func (b *Board) rowHint(r int) (sum, voltorbs int) {
	for c := 0; c < Size; c++ {
		sum += b.tiles[r][c]
		if b.tiles[r][c] == 0 {
			voltorbs++
		}
	}
	return sum, voltorbs
}

func (b *Board) colHint(c int) (sum, voltorbs int) {
	for r := 0; r < Size; r++ {
		sum += b.tiles[r][c]
		if b.tiles[r][c] == 0 {
			voltorbs++
		}
	}
	return sum, voltorbs
}

// Render draws the grid with row and column hints as "sum/voltorbs".
func (b *Board) Render(revealAll bool) string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < Size; c++ {
		fmt.Fprintf(&sb, " %c ", 'A'+c)
	}
	sb.WriteString("\n")

	for r := 0; r < Size; r++ {
		fmt.Fprintf(&sb, "%d  ", r+1)
		for c := 0; c < Size; c++ {
			switch {
			case !revealAll && !b.flipped[r][c]:
				sb.WriteString("[?]")
			case b.tiles[r][c] == 0:
				sb.WriteString("[*]")
			default:
				fmt.Fprintf(&sb, "[%d]", b.tiles[r][c])
			}
		}
		sum, v := b.rowHint(r)
		fmt.Fprintf(&sb, " %d/%d\n", sum, v)
	}

	sb.WriteString("   ")
	for c := 0; c < Size; c++ {
		sum, v := b.colHint(c)
		fmt.Fprintf(&sb, "%-3s", fmt.Sprintf("%d/%d", sum, v))
	}
	return sb.String()
}
