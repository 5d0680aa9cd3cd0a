// Package config provides configuration loading and management for
// fieldreport campaigns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete campaign configuration
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Input   InputConfig   `yaml:"input"`
	Outline OutlineConfig `yaml:"outline"`
	Figures FiguresConfig `yaml:"figures"`
	Render  RenderConfig  `yaml:"render"`
	Output  OutputConfig  `yaml:"output"`
	Compile CompileConfig `yaml:"compile"`
}

// ProjectConfig identifies the campaign
type ProjectConfig struct {
	// Name is the campaign/project name shown in the document header
	Name string `yaml:"name"`
	// Title is the document title (default: "<name> Test Report")
	Title string `yaml:"title"`
	// Logo is the optional header logo image path
	Logo string `yaml:"logo"`
}

// InputConfig configures the tabular source
type InputConfig struct {
	// Workbook is the campaign workbook path
	Workbook string `yaml:"workbook"`
	// Sheet is the sheet name to read (empty = first sheet)
	Sheet string `yaml:"sheet"`
	// IDField is the required identifier column
	IDField string `yaml:"id_field"`
	// Columns declares typed columns; undeclared columns are text
	Columns []ColumnConfig `yaml:"columns"`
}

// ColumnConfig declares one typed column
type ColumnConfig struct {
	Name string `yaml:"name"`
	// Type is one of text, number, time
	Type string `yaml:"type"`
	// Layout is the time layout for time columns (empty = built-in set)
	Layout string `yaml:"layout"`
}

// OutlineConfig configures section grouping and ordering
type OutlineConfig struct {
	// OrderField is the record field sections are ordered by
	OrderField string `yaml:"order_field"`
	// FrontMatter lists fixed leading sections in order
	FrontMatter []string `yaml:"front_matter"`
	// ExecSummary is the executive summary body text
	ExecSummary string `yaml:"exec_summary"`
}

// FiguresConfig configures figure resolution
type FiguresConfig struct {
	// Categories are the figure classes expected per record
	Categories []CategoryConfig `yaml:"categories"`
	// Placeholder is the image substituted for missing figures
	// (empty = omit the slot)
	Placeholder string `yaml:"placeholder"`
}

// CategoryConfig declares one figure category
type CategoryConfig struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
	// Pattern is the expected name; {identifier} and {category} expand
	// per record (default: "{identifier}_{category}")
	Pattern string `yaml:"pattern"`
	// Sweep matches Pattern as a glob over the whole directory
	Sweep bool `yaml:"sweep"`
	// Extensions are candidate extensions for non-sweep categories
	Extensions []string `yaml:"extensions"`
	// OptOutField disables the category for records whose field is "no"
	OptOutField string `yaml:"opt_out_field"`
}

// RenderConfig configures markup rendering
type RenderConfig struct {
	// Precision is the decimal precision for numeric fields
	Precision int `yaml:"precision"`
	// MissingToken renders in place of missing values (default: "N/A")
	MissingToken string `yaml:"missing_token"`
	// Fields selects and orders the detail-table fields (empty = all)
	Fields []FieldConfig `yaml:"fields"`
	// SummaryWorkbook is the optional per-section summary workbook
	// pattern; {identifier} expands per record
	SummaryWorkbook string `yaml:"summary_workbook"`
	// SummarySheet is the sheet read from the summary workbook
	SummarySheet string `yaml:"summary_sheet"`
	// CustomSummaries designates sections whose summary uses an explicit
	// wide column layout instead of the default one
	CustomSummaries []SummaryConfig `yaml:"custom_summaries"`
	// Workers bounds concurrent section rendering (0 = NumCPU)
	Workers int `yaml:"workers"`
}

// SummaryConfig declares the wide summary layout for one section
type SummaryConfig struct {
	// Section is the record identifier the layout applies to
	Section string `yaml:"section"`
	// Columns are the layout columns with explicit widths
	Columns []WideColumnConfig `yaml:"columns"`
}

// WideColumnConfig declares one column of a wide summary layout
type WideColumnConfig struct {
	Name    string  `yaml:"name"`
	WidthCM float64 `yaml:"width_cm"`
}

// FieldConfig maps one record field into the detail table
type FieldConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// OutputConfig configures the target directory tree
type OutputConfig struct {
	// Dir is the output root directory
	Dir string `yaml:"dir"`
	// MasterName is the master file base name (default: "report")
	MasterName string `yaml:"master_name"`
}

// CompileConfig configures the external typesetting engine
type CompileConfig struct {
	// Disabled skips artifact compilation, leaving markup only
	Disabled bool `yaml:"disabled"`
	// Command is the engine binary (default: "tectonic")
	Command string `yaml:"command"`
	// Args are the engine arguments; {tex} expands to the markup path
	Args []string `yaml:"args"`
	// Timeout bounds one engine invocation
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency bounds parallel engine invocations
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Sheet:   "Tests",
			IDField: "Test Step ID",
		},
		Outline: OutlineConfig{
			FrontMatter: []string{"Executive Summary"},
		},
		Render: RenderConfig{
			Precision:    2,
			MissingToken: "N/A",
			SummarySheet: "Summary",
		},
		Output: OutputConfig{
			MasterName: "report",
		},
		Compile: CompileConfig{
			Command:     "tectonic",
			Args:        []string{"--synctex", "--keep-logs"},
			Timeout:     2 * time.Minute,
			Concurrency: 2,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if c.Input.Workbook == "" {
		return fmt.Errorf("input.workbook is required")
	}
	if c.Input.IDField == "" {
		return fmt.Errorf("input.id_field is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Render.Precision < 0 {
		return fmt.Errorf("render.precision must not be negative")
	}
	if !c.Compile.Disabled && c.Compile.Command == "" {
		return fmt.Errorf("compile.command is required when compilation is enabled")
	}
	if c.Compile.Concurrency < 0 {
		return fmt.Errorf("compile.concurrency must not be negative")
	}
	for i, col := range c.Input.Columns {
		switch col.Type {
		case "", "text", "number", "time":
		default:
			return fmt.Errorf("input.columns[%d]: unknown type %q", i, col.Type)
		}
	}
	for i, s := range c.Render.CustomSummaries {
		if s.Section == "" {
			return fmt.Errorf("render.custom_summaries[%d]: section is required", i)
		}
		if len(s.Columns) == 0 {
			return fmt.Errorf("render.custom_summaries[%d]: columns are required", i)
		}
	}
	for i, cat := range c.Figures.Categories {
		if cat.Name == "" {
			return fmt.Errorf("figures.categories[%d]: name is required", i)
		}
		if cat.Dir == "" {
			return fmt.Errorf("figures.categories[%d]: dir is required", i)
		}
	}
	return nil
}

// Title returns the document title, defaulting from the project name.
func (c *Config) Title() string {
	if c.Project.Title != "" {
		return c.Project.Title
	}
	return c.Project.Name + " Test Report"
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Project
	if other.Project.Name != "" {
		c.Project.Name = other.Project.Name
	}
	if other.Project.Title != "" {
		c.Project.Title = other.Project.Title
	}
	if other.Project.Logo != "" {
		c.Project.Logo = other.Project.Logo
	}

	// Input
	if other.Input.Workbook != "" {
		c.Input.Workbook = other.Input.Workbook
	}
	if other.Input.Sheet != "" {
		c.Input.Sheet = other.Input.Sheet
	}
	if other.Input.IDField != "" {
		c.Input.IDField = other.Input.IDField
	}
	if len(other.Input.Columns) > 0 {
		c.Input.Columns = other.Input.Columns
	}

	// Outline
	if other.Outline.OrderField != "" {
		c.Outline.OrderField = other.Outline.OrderField
	}
	if len(other.Outline.FrontMatter) > 0 {
		c.Outline.FrontMatter = other.Outline.FrontMatter
	}
	if other.Outline.ExecSummary != "" {
		c.Outline.ExecSummary = other.Outline.ExecSummary
	}

	// Figures
	if len(other.Figures.Categories) > 0 {
		c.Figures.Categories = other.Figures.Categories
	}
	if other.Figures.Placeholder != "" {
		c.Figures.Placeholder = other.Figures.Placeholder
	}

	// Render
	if other.Render.Precision != 0 {
		c.Render.Precision = other.Render.Precision
	}
	if other.Render.MissingToken != "" {
		c.Render.MissingToken = other.Render.MissingToken
	}
	if len(other.Render.Fields) > 0 {
		c.Render.Fields = other.Render.Fields
	}
	if other.Render.SummaryWorkbook != "" {
		c.Render.SummaryWorkbook = other.Render.SummaryWorkbook
	}
	if other.Render.SummarySheet != "" {
		c.Render.SummarySheet = other.Render.SummarySheet
	}
	if len(other.Render.CustomSummaries) > 0 {
		c.Render.CustomSummaries = other.Render.CustomSummaries
	}
	if other.Render.Workers != 0 {
		c.Render.Workers = other.Render.Workers
	}

	// Output
	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.Output.MasterName != "" {
		c.Output.MasterName = other.Output.MasterName
	}

	// Compile
	if other.Compile.Disabled {
		c.Compile.Disabled = true
	}
	if other.Compile.Command != "" {
		c.Compile.Command = other.Compile.Command
	}
	if len(other.Compile.Args) > 0 {
		c.Compile.Args = other.Compile.Args
	}
	if other.Compile.Timeout != 0 {
		c.Compile.Timeout = other.Compile.Timeout
	}
	if other.Compile.Concurrency != 0 {
		c.Compile.Concurrency = other.Compile.Concurrency
	}
}
