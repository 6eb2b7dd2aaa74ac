package game

import "github.com/notnil/chess"

// chessRows and chessCols are the board's fixed feature-plane dimensions.
const (
	chessRows = 8
	chessCols = 8
)

// ChessFeatureWidth is the length of the vector EncodeChess returns.
const ChessFeatureWidth = chessRows*chessCols + chessRows*chessCols

// EncodeChess flattens a Chess position into a dual-head oracle's input
// layer: one plane of piece values keyed by square, one plane broadcasting
// the side to move. Empty squares get a small nonzero value so the trunk's
// first layer doesn't see an all-zero row for an empty board region.
func EncodeChess(c *Chess) []float32 {
	sq := c.Board().SquareMap()
	board := make([]float32, chessRows*chessCols)
	for i := range board {
		board[i] = 0.001
	}
	for k, v := range sq {
		if v == chess.NoPiece {
			board[int8(k)] = 0.001
		} else {
			board[int8(k)] = float32(v)
		}
	}

	sideToMove := make([]float32, chessRows*chessCols)
	var turn float32
	if c.WhiteToMove() {
		turn = float32(chess.White)
	} else {
		turn = float32(chess.Black)
	}
	for i := range sideToMove {
		sideToMove[i] = turn
	}

	return append(board, sideToMove...)
}
