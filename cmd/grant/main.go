// Command grant gives captured creatures to a player, to seed accounts for
// local play or hand out event rewards.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"pokebattle/internal/app"
	"pokebattle/internal/config"
	"pokebattle/internal/game"
	"pokebattle/internal/logging"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	user := flag.String("user", "", "player ID (Discord user ID or websocket user name)")
	coins := flag.Int("coins", 0, "coins to add to the player's balance")
	list := flag.Bool("list", false, "list species in the dex")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s -user ID [-coins N] SPECIES...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if !*list && (*user == "" || (flag.NArg() == 0 && *coins == 0)) {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *list {
		fmt.Println(strings.Join(a.Dex.Names(), "\n"))
		return
	}
	rng := game.NewRand()
	failed := false
	for _, species := range flag.Args() {
		c, err := a.Grant(ctx, *user, species, rng)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s received %s (%s, %d HP)\n", *user, c.Name, strings.Join(c.Types, "/"), c.Stats.HP)
	}
	if *coins > 0 {
		bal, err := a.Store.AddCoins(ctx, *user, *coins)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
		} else {
			fmt.Printf("%s now has %d coins\n", *user, bal)
		}
	}
	if failed {
		a.Close()
		os.Exit(1)
	}
}
