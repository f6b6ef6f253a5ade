// Command roomgen derives the opt companion, the four delta operations,
// the wire codec and the gameroom.Schema capability accessors for a
// host-declared room/player pair, from the roomforge struct tags on a
// single Go source file. It never touches the type-checker: field types
// are read back as source text via go/ast, so a field whose wire
// encoding isn't one of the builtin scalar kinds needs an explicit
// wire=KIND tag option (see internal/demo/tictactoe/tictactoe.go for a
// worked example, including the array/nullable tag forms).
package main

import (
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roomgen",
	Args:  cobra.ExactArgs(0),
	Short: "Derive a room schema's opt companion and wire codec",
}

func init() {
	p := rootCmd.Flags()
	schemaPath := p.StringP("schema", "s", "", "Go source file declaring the tagged Player/Room structs")
	outPath := p.StringP("out", "o", "", "output path (default: <schema>_gen.go)")
	if err := rootCmd.MarkFlagRequired("schema"); err != nil {
		panic(err)
	}

	rootCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		sc, err := discover(*schemaPath)
		if err != nil {
			return fmt.Errorf("discover schema: %w", err)
		}

		src, err := emit(sc, filepath.Base(*schemaPath))
		if err != nil {
			return fmt.Errorf("emit: %w", err)
		}

		formatted, err := format.Source(src)
		if err != nil {
			return fmt.Errorf("format generated source: %w", err)
		}

		dst := *outPath
		if dst == "" {
			dst = strings.TrimSuffix(*schemaPath, ".go") + "_gen.go"
		}
		if err := os.WriteFile(dst, formatted, 0644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (player=%s room=%s maxPlayers=%d)\n", dst, sc.PlayerType, sc.RoomType, sc.MaxPlayers)
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
