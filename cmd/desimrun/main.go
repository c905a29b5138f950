// Command desimrun is a thin harness proving desim's external
// interfaces (§6) are sufficient to drive a real simulation without
// any other code: it loads a build spec and config from YAML, runs
// them, and prints the resulting RunReport. Grounded on
// inference-sim-inference-sim's cmd/ + cobra convention (the closest
// DES-adjacent CLI example in the retrieval pack); the teacher itself
// has no CLI binary of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/iti/desim"
)

var (
	specFile   string
	configFile string
	traceFile  string
)

func main() {
	root := &cobra.Command{
		Use:   "desimrun",
		Short: "Run a desim build spec and print the resulting RunReport",
		RunE:  run,
	}
	root.Flags().StringVar(&specFile, "spec", "", "path to a BuildSpec YAML file (required)")
	root.Flags().StringVar(&configFile, "config", "", "path to a Config YAML file (defaults applied if omitted)")
	root.Flags().StringVar(&traceFile, "trace", "", "optional path to write trace records (.yaml/.yml or .json)")
	_ = root.MarkFlagRequired("spec")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	spec, err := loadBuildSpec(specFile)
	if err != nil {
		return fmt.Errorf("loading build spec: %w", err)
	}

	config := desim.DefaultConfig()
	if configFile != "" {
		if err := loadConfig(configFile, &config); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	registry := desim.HandlerRegistry{
		"echo": func() desim.Handler { return &echoHandler{} },
	}

	var trace *desim.Trace
	if traceFile != "" {
		trace = desim.NewTrace(true)
	}

	report, err := runWithTrace(spec, registry, config, trace)
	if err != nil {
		return err
	}

	if trace != nil {
		if err := trace.WriteToFile(traceFile); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}

	fmt.Printf("events_dispatched=%d end_time=%s reason=%s errors=%d\n",
		report.EventsDispatched, report.EndTime, report.Reason, len(report.Errors))
	for _, e := range report.Errors {
		fmt.Printf("  [%s] module=%d %s\n", e.Kind, e.ModuleID, e.Detail)
	}
	return nil
}

func loadBuildSpec(path string) (desim.BuildSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return desim.BuildSpec{}, err
	}
	var spec desim.BuildSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return desim.BuildSpec{}, err
	}
	return spec, nil
}

func loadConfig(path string, cfg *desim.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
