package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a taskforge project",
	Long: `Initialize a directory for use with taskforge.

This command sets up everything needed to run workloads:
  - Verifies the ANTHROPIC_API_KEY environment variable
  - Creates the .taskforge directory structure (logs, state database)
  - Creates a .taskforge.yaml configuration template
  - Adds taskforge entries to .gitignore if one exists

The directory argument is optional and defaults to the current directory.

Examples:
  taskforge init              # Initialize current directory
  taskforge init ./myproject  # Initialize specific directory
  taskforge init --force      # Reinitialize even if already set up`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing taskforge in %s...\n\n", absPath)

	taskforgeDir := filepath.Join(absPath, ".taskforge")
	if _, err := os.Stat(taskforgeDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	logsDir := filepath.Join(taskforgeDir, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating .taskforge/logs directory: %w", err)
	}
	printStatus("✓", "Created .taskforge directory structure", color.FgGreen)

	if err := createProjectConfig(absPath); err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	printStatus("✓", "Created .taskforge.yaml template", color.FgGreen)

	if err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}

	fmt.Printf("\n%s taskforge initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if apiKey == "" {
		fmt.Println("  1. Set your API key:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Write a workload and run it:")
	fmt.Println("     taskforge run workload.yaml")
	fmt.Println()
	fmt.Println("  3. Learn more:")
	fmt.Println("     taskforge --help")

	return nil
}

// createProjectConfig creates the .taskforge.yaml template.
func createProjectConfig(projectPath string) error {
	configPath := filepath.Join(projectPath, ".taskforge.yaml")

	// Don't overwrite an existing config
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	template := `# Taskforge Project Configuration
# This file overrides defaults from ~/.config/taskforge/config.yaml
# Scheduler weights are hot-reloaded while a workload is running.

# scheduler:
#   strategy: hybrid
#   max_concurrent: 50
#   weights:
#     priority: 0.3
#     load_balanced: 0.3
#     shortest_job: 0.2
#     deadline_first: 0.2

# anthropic:
#   model: claude-sonnet-4-20250514
#   use_bedrock: false
#   aws_region: us-west-2

# dispatch:
#   poll_interval: 100ms
#   no_agent_backoff: 1s

# state:
#   enabled: true
`

	return os.WriteFile(configPath, []byte(template), 0644)
}

// updateGitignore adds taskforge entries to an existing .gitignore.
func updateGitignore(projectPath string) error {
	gitignorePath := filepath.Join(projectPath, ".gitignore")

	data, err := os.ReadFile(gitignorePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	existing := string(data)

	entries := []string{
		".taskforge/logs/",
		".taskforge/state.db*",
	}

	needsUpdate := false
	for _, entry := range entries {
		if !strings.Contains(existing, entry) {
			needsUpdate = true
			break
		}
	}
	if !needsUpdate {
		return nil
	}

	var b strings.Builder
	b.WriteString(existing)
	if len(existing) > 0 && !strings.HasSuffix(existing, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n# Taskforge\n")
	for _, entry := range entries {
		if !strings.Contains(existing, entry) {
			b.WriteString(entry + "\n")
		}
	}

	if err := os.WriteFile(gitignorePath, []byte(b.String()), 0644); err != nil {
		return err
	}
	printStatus("✓", "Updated .gitignore with taskforge entries", color.FgGreen)
	return nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
