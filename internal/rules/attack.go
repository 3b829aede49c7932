package rules

import nchess "github.com/corentings/chess/v2"

var (
	knightJumps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func pieceAt(board map[nchess.Square]nchess.Piece, file, rank int) (nchess.Piece, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return nchess.NoPiece, false
	}
	return board[nchess.NewSquare(nchess.File(file), nchess.Rank(rank))], true
}

// attacked reports whether any piece of color by attacks target.
func attacked(board map[nchess.Square]nchess.Piece, target nchess.Square, by nchess.Color) bool {
	f, r := int(target.File()), int(target.Rank())

	// a white pawn attacks upward, so it sits one rank below the target
	pawnRank := r - 1
	if by == nchess.Black {
		pawnRank = r + 1
	}
	for _, df := range []int{-1, 1} {
		if pc, ok := pieceAt(board, f+df, pawnRank); ok && pc.Color() == by && pc.Type() == nchess.Pawn {
			return true
		}
	}

	for _, d := range knightJumps {
		if pc, ok := pieceAt(board, f+d[0], r+d[1]); ok && pc.Color() == by && pc.Type() == nchess.Knight {
			return true
		}
	}
	for _, d := range kingSteps {
		if pc, ok := pieceAt(board, f+d[0], r+d[1]); ok && pc.Color() == by && pc.Type() == nchess.King {
			return true
		}
	}

	if slides(board, f, r, rookRays[:], by, nchess.Rook) {
		return true
	}
	return slides(board, f, r, bishopRays[:], by, nchess.Bishop)
}

func slides(board map[nchess.Square]nchess.Piece, f, r int, rays [][2]int, by nchess.Color, kind nchess.PieceType) bool {
	for _, d := range rays {
		for step := 1; step < 8; step++ {
			pc, ok := pieceAt(board, f+d[0]*step, r+d[1]*step)
			if !ok {
				break
			}
			if pc == nchess.NoPiece {
				continue
			}
			if pc.Color() == by && (pc.Type() == kind || pc.Type() == nchess.Queen) {
				return true
			}
			break
		}
	}
	return false
}
