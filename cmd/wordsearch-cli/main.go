// cmd/wordsearch-cli/main.go
//
// Terminal client: play a word-search puzzle at a readline prompt.
//   - Flags (pflag) and environment share one viper instance, so GRID_SIZE and
//     --grid-size mean the same thing.
//   - --daily plays today's puzzle (same seed as POST /daily/new).
//   - Type "help" at the prompt for commands.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/game"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	v := config.New()
	v.SetDefault("log_level", "warn")
	fs := pflag.NewFlagSet("wordsearch-cli", pflag.ExitOnError)
	seed := fs.Uint64("seed", 0, "puzzle seed (random when 0)")
	today := fs.Bool("daily", false, "play today's puzzle")
	if err := config.BindFlags(v, fs); err != nil {
		log.Fatal().Err(err).Msg("flags")
	}
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(v)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.ApplyLogLevel()

	entries, err := cfg.Words()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	if *today {
		*seed = daily.Seed(time.Now(), cfg.DailySalt)
	}

	sess, err := game.New(entries, game.Options{Size: cfg.GridSize, Seed: *seed})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create puzzle")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "wordsearch> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		AutoComplete:    completer(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("readline")
	}
	defer rl.Close()

	sh := newShell(sess, rl.Stdout(), clipboard.WriteAll)
	sh.show()
	fmt.Fprintln(rl.Stdout(), `type "help" for commands`)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("readline")
		}
		quit, err := sh.exec(line)
		if err != nil {
			fmt.Fprintln(rl.Stdout(), sh.styles.err.Render(err.Error()))
		}
		if quit {
			return
		}
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "wordsearch_history"
}

func completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}
