// Command cotulenh-debug is a developer tool for exercising the engine
// from the shell: dump a board, list legal moves, run a perft node
// count, or play an interactive game. Grounded on the teacher's
// main.go (a flag-driven perft runner with -cpuprofile/-memprofile
// hooks), rebuilt on cobra subcommands since this façade exposes more
// than one operation.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mnoyd/cotulenh/board"
	"github.com/mnoyd/cotulenh/game"
	"github.com/mnoyd/cotulenh/internal/boardtext"
	"github.com/mnoyd/cotulenh/internal/perft"
	"github.com/mnoyd/cotulenh/piece"
	"github.com/mnoyd/cotulenh/san"
)

var fenFlag string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cotulenh-debug",
		Short: "Inspect and exercise the CoTuLenh rules engine",
	}
	root.PersistentFlags().StringVar(&fenFlag, "fen", "", "starting position FEN (default: the opening position)")
	root.AddCommand(newBoardCmd(), newMovesCmd(), newPerftCmd(), newPlayCmd())
	return root
}

func loadGame() (*game.Game, error) {
	g, err := game.New(fenFlag)
	if err != nil {
		return nil, errors.Wrap(err, "cotulenh-debug: load position")
	}
	return g, nil
}

func newBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Print the board for the given position",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGame()
			if err != nil {
				return err
			}
			fmt.Print(boardtext.Format(g.Position()))
			fmt.Printf("FEN: %s\n", g.FEN())
			return nil
		},
	}
}

func newMovesCmd() *cobra.Command {
	var squareStr string
	var pieceStr string
	cmd := &cobra.Command{
		Use:   "moves",
		Short: "List legal moves, optionally filtered by origin square or piece type",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGame()
			if err != nil {
				return err
			}
			sq := board.NoSquare
			if squareStr != "" {
				sq, err = board.ParseSquare(squareStr)
				if err != nil {
					return errors.Wrap(err, "cotulenh-debug: parse --square")
				}
			}
			pt := piece.NoType
			if pieceStr != "" {
				pt, _ = piece.TypeFromLetter(pieceStr[0])
				if pt == piece.NoType {
					return errors.Errorf("cotulenh-debug: unrecognized --piece %q", pieceStr)
				}
			}
			moves := g.Moves(game.MovesOptions{Square: sq, PieceType: pt})
			for _, m := range moves {
				fmt.Println(san.Emit(m, moves))
			}
			fmt.Printf("%d move(s)\n", len(moves))
			return nil
		},
	}
	cmd.Flags().StringVar(&squareStr, "square", "", "restrict to moves originating from this square (e.g. d5)")
	cmd.Flags().StringVar(&pieceStr, "piece", "", "restrict to moves by this piece letter (e.g. T for tank)")
	return cmd
}

func newPerftCmd() *cobra.Command {
	var depth int
	var verbose bool
	var cpuProfile string
	cmd := &cobra.Command{
		Use:   "perft",
		Short: "Count the move-generation tree's leaf nodes to a given depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return errors.Wrap(err, "cotulenh-debug: create cpu profile")
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return errors.Wrap(err, "cotulenh-debug: start cpu profile")
				}
				defer pprof.StopCPUProfile()
			}
			g, err := loadGame()
			if err != nil {
				return err
			}
			start := time.Now()
			if verbose {
				r := perft.CountVerbose(g.Position(), depth)
				fmt.Printf("nodes=%d captures=%d stayCaptures=%d kamikazes=%d deploys=%d\n",
					r.Nodes, r.Captures, r.StayCaptures, r.Kamikazes, r.Deploys)
			} else {
				fmt.Println(perft.Count(g.Position(), depth))
			}
			fmt.Fprintf(os.Stderr, "elapsed: %s\n", time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 1, "search depth in plies")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "tally move categories at the root ply")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	return cmd
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play an interactive game from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGame()
			if err != nil {
				return err
			}
			return runPlayLoop(g, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlayLoop(g *game.Game, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, boardtext.Format(g.Position()))
	fmt.Fprintln(out, "enter a move (SAN), 'undo', or 'quit'")
	for {
		fmt.Fprintf(out, "%s> ", g.Turn())
		if !scanner.Scan() {
			return nil
		}
		line := scanner.Text()
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "undo":
			if _, ok := g.Undo(); !ok {
				fmt.Fprintln(out, "nothing to undo")
			}
		case "moves":
			moves := g.Moves(game.MovesOptions{Square: board.NoSquare, PieceType: piece.NoType})
			for _, m := range moves {
				fmt.Fprintln(out, san.Emit(m, moves))
			}
		default:
			if _, err := g.Move(line); err != nil {
				fmt.Fprintln(out, "illegal move:", err)
				continue
			}
		}
		fmt.Fprint(out, boardtext.Format(g.Position()))
		if g.IsGameOver() {
			fmt.Fprintln(out, "game over")
			return nil
		}
	}
}
