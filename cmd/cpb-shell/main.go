// Command cpb-shell is the interactive CLI of the Chess Puzzle
// Database Explorer: it loads one or more lichess CSV databases (and,
// optionally, a previously written memory profile), then accepts
// verbs on stdin to build a query, inspect it and run it against the
// indexed store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
	"github.com/lluisalemanypuig/chesspebase/internal/cpblog"
	"github.com/lluisalemanypuig/chesspebase/internal/ingest"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
	"github.com/lluisalemanypuig/chesspebase/internal/query"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var lichessDatabases []string
	var readMemoryProfile string
	var writeMemoryProfile string

	cmd := &cobra.Command{
		Use:   "cpb-shell",
		Short: "Interactive explorer for a chess puzzle database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(lichessDatabases, readMemoryProfile, writeMemoryProfile)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&lichessDatabases, "lichess-database", nil, "path to a lichess puzzle CSV (repeatable)")
	flags.StringVar(&readMemoryProfile, "read-memory-profile", "", "pre-size the store's arena from a previously written memory profile")
	flags.StringVar(&writeMemoryProfile, "write-memory-profile", "", "write a memory profile of the final store to this path before exiting")
	return cmd
}

func run(lichessDatabases []string, readMemoryProfile, writeMemoryProfile string) error {
	log, err := cpblog.New(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	fmt.Println("===========================")
	fmt.Println("Chess Puzzle Database cli")

	store := classtree.New()
	if readMemoryProfile != "" {
		fmt.Printf("--------------------------\n")
		fmt.Printf("Reading memory profile '%s'.\n", readMemoryProfile)
		f, err := os.Open(readMemoryProfile)
		if err != nil {
			return fmt.Errorf("could not open memory profile: %w", err)
		}
		restored, err := classtree.Initialize(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("could not read memory profile: %w", err)
		}
		store = restored
	}

	for _, path := range lichessDatabases {
		fmt.Println("--------------------------")
		fmt.Printf("Loading lichess database %s\n", path)
		loaded, result, err := ingest.Load(context.Background(), []string{path}, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "The lichess database '%s' could not be read: %v\n", path, err)
			continue
		}
		before := store.Size()
		store.Merge(loaded)
		store.UpdateSize()
		fmt.Printf("Total fen read: %d.\n", result.RowsRead)
		fmt.Printf("Added %d new positions.\n", store.Size()-before)
	}

	fmt.Println("===========================")

	q := &query.Query{}
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("option> ")
loop:
	for scanner.Scan() {
		option := strings.TrimSpace(scanner.Text())
		switch option {
		case "exit":
			fmt.Print("\n")
			break loop
		case "query":
			processQuery(scanner, q)
		case "info":
			fmt.Println("Database statistics:")
			fmt.Printf("    Size: %d\n", store.Size())
			fmt.Printf("    Estimated memory: %s\n", humanize.Bytes(uint64(classtree.EstimatedBytes(store))))
		case "show":
			showPieceQuery("pawns", q.Pawn)
			showPieceQuery("rooks", q.Rook)
			showPieceQuery("knights", q.Knight)
			showPieceQuery("bishops", q.Bishop)
			showPieceQuery("queens", q.Queen)
			showTotalQuery(q)
			showTurnQuery(q)
		case "run":
			runQuery(store, q)
		case "":
			// ignore blank lines
		default:
			fmt.Printf("Unknown option '%s'\n", option)
		}
		fmt.Print("option> ")
	}

	if writeMemoryProfile != "" {
		fmt.Println("--------------------------")
		fmt.Printf("Writing memory profile '%s'.\n", writeMemoryProfile)
		f, err := os.Create(writeMemoryProfile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer f.Close()
		if err := classtree.OutputProfile(store, f); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}
	return nil
}

func processQuery(scanner *bufio.Scanner, q *query.Query) {
	fmt.Print("what (piece/global/turn/reset)> ")
	if !scanner.Scan() {
		return
	}
	switch strings.TrimSpace(scanner.Text()) {
	case "piece":
		fmt.Print("piece type (pawns/rooks/knights/bishops/queens)> ")
		scanner.Scan()
		pieceType := strings.TrimSpace(scanner.Text())

		fmt.Print("query type (white/black/both)> ")
		scanner.Scan()
		queryType := strings.TrimSpace(scanner.Text())

		fmt.Print("action (set/unset)> ")
		scanner.Scan()
		action := strings.TrimSpace(scanner.Text())

		var lo, hi int
		if action == "set" {
			lo, hi = readRange(scanner)
		}

		pr := pieceRangesFor(q, pieceType)
		if pr == nil {
			fmt.Printf("Unknown piece type '%s'\n", pieceType)
			return
		}
		if action == "set" {
			setQueryField(pr, queryType, lo, hi)
		} else if action == "unset" {
			unsetQueryField(pr, queryType)
		}

	case "global":
		fmt.Print("action (set/unset)> ")
		scanner.Scan()
		action := strings.TrimSpace(scanner.Text())

		if action == "set" {
			lo, hi := readRange(scanner)
			q.Total = &query.Range{Lo: lo, Hi: hi}
		} else if action == "unset" {
			q.Total = nil
		}

	case "turn":
		fmt.Print("player (white/black)> ")
		scanner.Scan()
		player := strings.TrimSpace(scanner.Text())

		fmt.Print("action (set/unset)> ")
		scanner.Scan()
		action := strings.TrimSpace(scanner.Text())

		if action == "set" {
			var side position.Side
			switch player {
			case "white":
				side = position.White
			case "black":
				side = position.Black
			default:
				fmt.Printf("Unknown player '%s'\n", player)
				return
			}
			q.Side = &side
		} else if action == "unset" {
			q.Side = nil
		}

	case "reset":
		*q = query.Query{}
	}
}

func readRange(scanner *bufio.Scanner) (lo, hi int) {
	fmt.Print("lb> ")
	scanner.Scan()
	lo, _ = strconv.Atoi(strings.TrimSpace(scanner.Text()))
	fmt.Print("ub> ")
	scanner.Scan()
	hi, _ = strconv.Atoi(strings.TrimSpace(scanner.Text()))
	return lo, hi
}

func pieceRangesFor(q *query.Query, pieceType string) *query.PieceRanges {
	switch pieceType {
	case "pawns":
		return &q.Pawn
	case "rooks":
		return &q.Rook
	case "knights":
		return &q.Knight
	case "bishops":
		return &q.Bishop
	case "queens":
		return &q.Queen
	default:
		return nil
	}
}

func setQueryField(pr *query.PieceRanges, field string, lo, hi int) {
	r := &query.Range{Lo: lo, Hi: hi}
	switch field {
	case "white":
		pr.White = r
	case "black":
		pr.Black = r
	case "both":
		pr.Combined = r
	default:
		fmt.Printf("Unknown field '%s'\n", field)
	}
}

func unsetQueryField(pr *query.PieceRanges, field string) {
	switch field {
	case "white":
		pr.White = nil
	case "black":
		pr.Black = nil
	case "both":
		pr.Combined = nil
	default:
		fmt.Printf("Unknown field '%s'\n", field)
	}
}

func showPieceQuery(name string, pr query.PieceRanges) {
	fmt.Printf("Piece type: %s\n", name)
	fmt.Print("    Query white: ")
	printRange(pr.White)
	fmt.Print("    Query black: ")
	printRange(pr.Black)
	fmt.Print("    Query both: ")
	printRange(pr.Combined)
}

func printRange(r *query.Range) {
	if r == nil {
		fmt.Println(" no")
		return
	}
	fmt.Printf(" %d, %d\n", r.Lo, r.Hi)
}

func showTotalQuery(q *query.Query) {
	fmt.Print("Query for all pieces? ")
	if q.Total == nil {
		fmt.Println("No")
		return
	}
	fmt.Printf("    %d, %d\n", q.Total.Lo, q.Total.Hi)
}

func showTurnQuery(q *query.Query) {
	fmt.Print("Query for player turn? ")
	if q.Side == nil {
		fmt.Println("No")
		return
	}
	if *q.Side == position.White {
		fmt.Println("    w")
	} else {
		fmt.Println("    b")
	}
}

func runQuery(store *classtree.Tree, q *query.Query) {
	preds := query.Compile(q)
	it := classtree.RangeIteratorBegin(store, preds)

	numPositions := 0
	for it.Next() {
		pos, _ := it.Current()
		fmt.Println(position.Render(pos))
		numPositions++
	}
	fmt.Printf("Num positions: %d\n", numPositions)
}
