// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rental-aggregator/internal/common/validation"
	"rental-aggregator/pkg/registry"
)

const defaultRegistryPath = "configs/tool-registry.json"

var registryPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, validateCmd, listCmd, initCmd} {
		fs.StringVar(&registryPath, "path", defaultRegistryPath, "Path to registry file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Caller-facing tool id (e.g., jupri_zillow_scraper)")
	backend := addCmd.String("backend", "", "Backend actor name (e.g., jupri-slash-zillow-scraper)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Zillow)")
	description := addCmd.String("description", "", "Description shown to callers")
	source := addCmd.String("source", "", "Listing source label (e.g., zillow)")
	schemaFile := addCmd.String("schema", "", "Optional JSON Schema file for the tool input")
	tags := addCmd.String("tags", "", "Comma separated tags")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Tool id to update")
	field := updateCmd.String("field", "", "Field to update (backendName, displayName, description, source, enabled, tags)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *backend == "" || *displayName == "" || *description == "" {
			fmt.Println("Error: id, backend, displayName, and description are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		tool := registry.Tool{
			ID:          *idAdd,
			BackendName: *backend,
			DisplayName: *displayName,
			Description: *description,
			Source:      *source,
			Enabled:     true,
			Tags:        splitTags(*tags),
		}
		if *schemaFile != "" {
			schema, err := readSchema(*schemaFile)
			if err != nil {
				fmt.Printf("Error reading schema: %v\n", err)
				os.Exit(1)
			}
			tool.InputSchema = schema
		}
		if err := addTool(tool); err != nil {
			fmt.Printf("Error adding tool: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added tool: %s -> %s\n", *idAdd, *backend)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateTool(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating tool: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated tool %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listTools(); err != nil {
			fmt.Printf("Error listing tools: %v\n", err)
			os.Exit(1)
		}

	case "init":
		initCmd.Parse(os.Args[2:])
		if err := saveRegistry(registry.Default(), registryPath); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in registry to %s\n", registryPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

func addTool(tool registry.Tool) error {
	reg, err := registry.LoadOrDefault(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if _, exists := reg.Find(tool.ID); exists {
		return fmt.Errorf("tool with ID %s already exists", tool.ID)
	}
	if tool.InputSchema != nil {
		if err := validation.NewSchemaValidator().Register(tool.BackendName, tool.InputSchema); err != nil {
			return fmt.Errorf("invalid input schema: %w", err)
		}
	}

	reg.Upsert(tool)
	return saveRegistry(reg, registryPath)
}

func updateTool(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	tool, found := reg.Find(id)
	if !found {
		return fmt.Errorf("tool with ID %s not found", id)
	}

	switch field {
	case "backendName":
		tool.BackendName = value
	case "displayName":
		tool.DisplayName = value
	case "description":
		tool.Description = value
	case "source":
		tool.Source = value
	case "tags":
		tool.Tags = splitTags(value)
	case "enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid enabled value: %w", err)
		}
		tool.Enabled = enabled
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if len(reg.Tools) == 0 {
		return fmt.Errorf("registry contains no tools")
	}

	problems := reg.Validate()
	validator := validation.NewSchemaValidator()
	for _, tool := range reg.Tools {
		if tool.InputSchema == nil {
			continue
		}
		if err := validator.Register(tool.BackendName, tool.InputSchema); err != nil {
			problems = append(problems, fmt.Sprintf("tool %q: %v", tool.ID, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n  %s", len(problems), strings.Join(problems, "\n  "))
	}

	fmt.Printf("Registry validation passed. Found %d tools.\n", len(reg.Tools))
	return nil
}

func listTools() error {
	reg, err := registry.LoadOrDefault(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	for _, tool := range reg.Tools {
		state := "enabled"
		if !tool.Enabled {
			state = "disabled"
		}
		fmt.Printf("%-32s %-38s %-14s %s\n", tool.ID, tool.BackendName, tool.Source, state)
	}
	return nil
}

func readSchema(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return schema, nil
}

func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// saveRegistry creates the directory if needed and writes the registry.
func saveRegistry(reg *registry.ToolRegistry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := reg.Save(path); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new search tool to the registry
  update   Update an existing tool's field
  validate Validate the registry file and every input schema
  list     List the tools in the registry
  init     Write the built-in tool catalog to the registry file
  help     Show this help message

Examples:
  registry-updater add -id zumper_scraper -backend acme-slash-zumper-scraper -displayName Zumper -description "Search Zumper rentals" -source zumper
  registry-updater update -id epctex_realtor_scraper -field enabled -value false
  registry-updater validate -path configs/tool-registry.json

Use 'registry-updater <command> -h' for more information about a command.
`)
}
