// Command seed fills the local actor directory and prints a token per actor.
//
//	go run ./cmd/seed -secret dev ngo-1:ngo:"Green Hands" artisan-1:artisan:Weaver
package main

import (
	"artisan-link/auth"
	"artisan-link/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

func main() {
	_ = godotenv.Load()
	dsn := flag.String("dsn", os.Getenv("ACTORS_DSN"), "SQLite DSN of the actor directory")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "Secret used to sign the printed tokens, none are printed when empty")
	ttl := flag.Duration("ttl", 24*time.Hour, "Lifetime of the printed tokens")
	flag.Parse()

	if *dsn == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: seed -dsn actors.db id:role[:display name]...")
		os.Exit(2)
	}

	db, err := repositories.OpenActorDirectory(*dsn)
	if err != nil {
		log.Fatal(err)
	}
	actors := repositories.NewActorRepository(db)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Id", "Role", "Name", "Token"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, arg := range flag.Args() {
		actor, err := parseActor(arg)
		if err != nil {
			log.Fatal(err)
		}
		if err = actors.UpsertActor(actor); err != nil {
			log.Fatalf("upsert %s: %v", actor.ID, err)
		}
		token := ""
		if *secret != "" {
			role, _ := actor.DomainRole()
			if token, err = auth.GenerateToken(actor.ID, role, *ttl, *secret); err != nil {
				log.Fatalf("token for %s: %v", actor.ID, err)
			}
		}
		table.Append([]string{actor.ID, actor.Role, actor.DisplayName, token})
	}
	table.Render()
}

func parseActor(arg string) (repositories.Actor, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return repositories.Actor{}, fmt.Errorf("invalid actor %q, expected id:role[:display name]", arg)
	}
	actor := repositories.Actor{ID: parts[0], Role: strings.ToLower(parts[1])}
	if len(parts) == 3 {
		actor.DisplayName = parts[2]
	}
	if _, err := actor.DomainRole(); err != nil {
		return repositories.Actor{}, err
	}
	return actor, nil
}
