// cmd/tools/synth-preview/main.go
//
// Runs the synthesizer over a JSON event snapshot and prints the candidate
// notifications, so derivation changes can be eyeballed without standing up
// the whole engine.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"proactive-notify/internal/engine/synth"
	"proactive-notify/internal/models"
)

func main() {
	eventsPath := flag.String("events", "", "Path to a JSON array of events")
	nowStr := flag.String("now", "", "Reference time, RFC3339 (defaults to wall clock)")
	briefing := flag.String("briefing", "", "Daily briefing time as HH:MM (empty disables the briefing)")
	tz := flag.String("tz", "UTC", "IANA timezone for the context")
	flag.Parse()

	if *eventsPath == "" {
		fmt.Println("Error: -events is required.")
		flag.Usage()
		os.Exit(1)
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Printf("Error: bad timezone %q: %v\n", *tz, err)
		os.Exit(1)
	}

	now := time.Now().In(loc)
	if *nowStr != "" {
		now, err = time.Parse(time.RFC3339, *nowStr)
		if err != nil {
			fmt.Printf("Error: bad -now value: %v\n", err)
			os.Exit(1)
		}
		now = now.In(loc)
	}

	data, err := os.ReadFile(*eventsPath)
	if err != nil {
		fmt.Printf("Error reading events: %v\n", err)
		os.Exit(1)
	}
	var events []models.Event
	if err := json.Unmarshal(data, &events); err != nil {
		fmt.Printf("Error parsing events: %v\n", err)
		os.Exit(1)
	}

	prefs := models.DefaultPreferences()
	if *briefing != "" {
		bt, err := time.Parse("15:04", *briefing)
		if err != nil {
			fmt.Printf("Error: bad -briefing value: %v\n", err)
			os.Exit(1)
		}
		prefs.BriefingTime = time.Date(now.Year(), now.Month(), now.Day(), bt.Hour(), bt.Minute(), 0, 0, loc)
	}

	s := synth.NewSynthesizer(synth.DefaultConfig(), nil)
	batch := s.Synthesize(events, models.UserContext{
		Now:         now,
		Location:    loc,
		Preferences: prefs,
	})

	fmt.Printf("reference time: %s\n", now.Format(time.RFC3339))
	fmt.Printf("events in:      %d\n", len(events))
	fmt.Printf("candidates out: %d\n\n", len(batch))

	for _, n := range batch {
		scheduled := "immediate"
		if n.ScheduledFor != nil {
			scheduled = n.ScheduledFor.Format(time.RFC3339)
		}
		fmt.Printf("[%s] %s (%s)\n", n.Type, n.Title, n.Priority)
		fmt.Printf("  id:        %s\n", n.ID)
		fmt.Printf("  scheduled: %s\n", scheduled)
		fmt.Printf("  message:   %s\n", n.Message)
		for _, a := range n.Actions {
			fmt.Printf("  action:    %s -> %s\n", a.Label, a.Token)
		}
		fmt.Println()
	}
}
