// cmd/tools/registry-check/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"proactive-notify/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/sources.json", "Path to source registry file")

	listPath := listCmd.String("path", "configs/sources.json", "Path to source registry file")
	listEnabled := listCmd.Bool("enabled", false, "List only enabled sources")

	addPath := addCmd.String("path", "configs/sources.json", "Path to source registry file")
	addID := addCmd.String("id", "", "Source ID (e.g., work-calendar)")
	addURL := addCmd.String("url", "", "ICS feed URL")
	addName := addCmd.String("displayName", "", "Display name")
	addTZ := addCmd.String("timezone", "", "IANA timezone (e.g., America/New_York)")
	addDisabled := addCmd.Bool("disabled", false, "Add the source disabled")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fmt.Printf("Registry is invalid: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry is valid: %d sources (%d enabled)\n", len(reg.Sources), len(reg.EnabledSources()))

	case "list":
		listCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*listPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		sources := reg.Sources
		if *listEnabled {
			sources = reg.EnabledSources()
		}
		for _, s := range sources {
			state := "enabled"
			if !s.Enabled {
				state = "disabled"
			}
			fmt.Printf("%-24s %-8s %s\n", s.ID, state, s.URL)
		}

	case "add":
		addCmd.Parse(os.Args[2:])
		if *addID == "" || *addURL == "" {
			fmt.Println("Error: id and url are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		if err := addSource(*addPath, registry.CalendarSource{
			ID:          *addID,
			DisplayName: *addName,
			URL:         *addURL,
			Timezone:    *addTZ,
			Enabled:     !*addDisabled,
		}); err != nil {
			fmt.Printf("Error adding source: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added source: %s\n", *addID)

	default:
		help()
		os.Exit(1)
	}
}

func addSource(path string, src registry.CalendarSource) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return err
	}
	for _, existing := range reg.Sources {
		if existing.ID == src.ID {
			return fmt.Errorf("source %s already exists", src.ID)
		}
	}
	reg.Sources = append(reg.Sources, src)
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func help() {
	fmt.Println("Usage: registry-check <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  validate  Validate a source registry file against the schema")
	fmt.Println("  list      List sources in a registry file")
	fmt.Println("  add       Add a calendar source to a registry file")
}
