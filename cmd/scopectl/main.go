package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	recordauth "github.com/andreibyf/aishacrm-2-sub006"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		handleValidate()
	case "convert":
		handleConvert()
	case "explain":
		handleExplain()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("scopectl - policy configuration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scopectl validate <file>               - Validate a policy configuration")
	fmt.Println("  scopectl convert <input> <output>      - Convert between yaml and json")
	fmt.Println("  scopectl explain <file> [flags]        - Print the effective scope and list predicate for an identity")
	fmt.Println()
	fmt.Println("Supported formats: .yaml, .yml, .json")
}

func handleValidate() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: scopectl validate <file>")
		os.Exit(1)
	}
	cfg, err := loadConfig(os.Args[2])
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if _, err := cfg.Grammar(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	registry, err := cfg.BuildRegistry()
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration is valid")
	fmt.Printf("  Version: %d\n", cfg.Version)
	fmt.Printf("  Tenant id format: %s\n", orDefault(cfg.TenantIDFormat, "both"))
	fmt.Printf("  Record types: %d\n", len(cfg.RecordTypes))
	for _, name := range registry.Types() {
		fmt.Printf("    %s\n", name)
	}
}

func handleConvert() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: scopectl convert <input> <output>")
		os.Exit(1)
	}
	cfg, err := loadConfig(os.Args[2])
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := saveConfig(cfg, os.Args[3]); err != nil {
		fmt.Printf("Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Converted %s -> %s\n", os.Args[2], os.Args[3])
}

func handleExplain() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: scopectl explain <file> [flags]")
		os.Exit(1)
	}
	file := os.Args[2]

	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	email := fs.String("email", "", "caller email")
	role := fs.String("role", "user", "caller role (superadmin|admin|power-user|user)")
	employeeRole := fs.String("employee-role", "", "caller employee_role (manager|employee|empty)")
	tenant := fs.String("tenant", "", "caller tenant id")
	recordType := fs.String("record-type", "", "record type to explain")
	tenantOverride := fs.String("tenant-override", "", "session tenant override")
	employeeOverride := fs.String("employee-override", "", "session employee-scope override")
	_ = fs.Parse(os.Args[3:])

	cfg, err := loadConfig(file)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	engine, err := recordauth.NewEngineFromConfig(cfg)
	if err != nil {
		fmt.Printf("Error building engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	id := recordauth.Identity{
		Email:        *email,
		Role:         recordauth.Role(*role),
		EmployeeRole: recordauth.EmployeeRole(*employeeRole),
		TenantID:     *tenant,
	}
	sess := recordauth.SessionContext{
		TenantOverride:   *tenantOverride,
		EmployeeOverride: *employeeOverride,
	}

	scope, scopeErr := recordauth.ResolveScope(id, sess)
	fmt.Printf("Effective scope:\n")
	fmt.Printf("  tenant_id: %s\n", orDefault(scope.TenantID, "(all tenants)"))
	fmt.Printf("  ownership: %s\n", scope.Mode)
	if scope.Employee != "" {
		fmt.Printf("  employee:  %s\n", scope.Employee)
	}
	if scopeErr != nil {
		fmt.Printf("  note: %v\n", scopeErr)
	}

	if *recordType == "" {
		return
	}
	pred, err := engine.ListPredicate(id, *recordType, sess)
	if err != nil {
		fmt.Printf("note: %v\n", err)
	}
	out, _ := json.MarshalIndent(pred, "", "  ")
	fmt.Printf("List predicate for %s:\n%s\n", *recordType, out)
}

func loadConfig(filename string) (*recordauth.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	loader := recordauth.NewConfigLoader()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return loader.LoadYAML(data)
	case ".json":
		return loader.LoadJSON(data)
	}
	return nil, fmt.Errorf("unsupported format: %s", filepath.Ext(filename))
}

func saveConfig(cfg *recordauth.Config, filename string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = cfg.ToYAML()
	case ".json":
		data, err = cfg.ToJSON()
	default:
		return fmt.Errorf("unsupported format: %s", filepath.Ext(filename))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
