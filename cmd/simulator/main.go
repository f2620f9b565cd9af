package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("Error: JWT_SECRET must be set (the simulator mints its own actor tokens)")
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "skirmish":
		skirmishCmd(apiURL, secret, args)
	case "contest":
		contestCmd(apiURL, secret, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Governance Simulator - Development tool for exercising the engine

USAGE:
  simulator <command> [options]

COMMANDS:
  skirmish  Found two combat teams, declare war, and feed battle events
  contest   Found two teams and race them over one sector's influence
  help      Show this help message

ENVIRONMENT:
  API_URL     Backend API URL (default: http://localhost:8080)
  JWT_SECRET  Shared token secret; the simulator mints actor tokens itself

EXAMPLES:
  # Run a war to its score limit
  simulator skirmish --score-limit=50

  # Contest sector alpha-7 with influence events
  simulator contest --sector=alpha-7`)
}

func skirmishCmd(apiURL, secret string, args []string) {
	fs := flag.NewFlagSet("skirmish", flag.ExitOnError)
	scoreLimit := fs.Int64("score-limit", 50, "Score limit that ends the war")
	battles := fs.Int("battles", 20, "Number of battle events to feed")
	fs.Parse(args)

	client := NewAPIClient(apiURL, secret)

	fmt.Println("=== Governance Simulator: Skirmish ===")
	fmt.Println()

	redFounder := client.NewActor()
	blueFounder := client.NewActor()

	fmt.Print("Founding teams... ")
	red, err := client.CreateTeam(redFounder, "Red Talon", "RTLN", "combat")
	if err != nil {
		fail(err)
	}
	blue, err := client.CreateTeam(blueFounder, "Blue Veil", "BVL", "combat")
	if err != nil {
		fail(err)
	}
	fmt.Printf("OK (%s vs %s)\n", red.Tag, blue.Tag)

	fmt.Print("Funding war chest... ")
	if _, err := client.Deposit(redFounder, red.ID, 10000); err != nil {
		fail(err)
	}
	fmt.Println("OK")

	fmt.Print("Declaring war... ")
	war, err := client.DeclareWar(redFounder, red.ID, blue.ID, *scoreLimit)
	if err != nil {
		fail(err)
	}
	fmt.Printf("OK (war %s)\n", war.ID)

	fmt.Printf("Feeding %d battle events...\n", *battles)
	for i := 0; i < *battles; i++ {
		winner := red.ID
		if i%3 == 2 {
			winner = blue.ID
		}
		w, err := client.ReportBattle(redFounder, war.ID, winner, 5)
		if err != nil {
			fail(err)
		}
		fmt.Printf("  battle %2d: %d - %d (%s)\n", i+1, w.AggressorScore, w.DefenderScore, w.Status)
		if w.Status == "ceased" {
			fmt.Printf("War ceased, outcome: %s\n", deref(w.Outcome))
			return
		}
	}
	fmt.Println("All battles fed, war still active")
}

func contestCmd(apiURL, secret string, args []string) {
	fs := flag.NewFlagSet("contest", flag.ExitOnError)
	sector := fs.String("sector", "alpha-7", "Sector to contest")
	rounds := fs.Int("rounds", 12, "Influence events per team")
	fs.Parse(args)

	client := NewAPIClient(apiURL, secret)

	fmt.Println("=== Governance Simulator: Sector Contest ===")
	fmt.Println()

	aFounder := client.NewActor()
	bFounder := client.NewActor()

	fmt.Print("Founding teams... ")
	teamA, err := client.CreateTeam(aFounder, "Ashen Concord", "ASH", "economic")
	if err != nil {
		fail(err)
	}
	teamB, err := client.CreateTeam(bFounder, "Border Reach", "BRDR", "economic")
	if err != nil {
		fail(err)
	}
	fmt.Printf("OK (%s vs %s)\n", teamA.Tag, teamB.Tag)

	fmt.Printf("Racing over sector %s...\n", *sector)
	for i := 0; i < *rounds; i++ {
		if err := client.SectorActivity(aFounder, *sector, 10); err != nil {
			fail(err)
		}
		if i%2 == 0 {
			if err := client.SectorActivity(bFounder, *sector, 5); err != nil {
				fail(err)
			}
		}

		state, err := client.GetSector(aFounder, *sector)
		if err != nil {
			fail(err)
		}
		fmt.Printf("  round %2d: controller=%s contested=%v\n", i+1, deref(state.ControllerID), state.Contested)
	}
}

func fail(err error) {
	fmt.Printf("FAILED\n  Error: %v\n", err)
	os.Exit(1)
}

func deref(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
