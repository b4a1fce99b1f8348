package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/goliatone/go-views/pkg/bundle"
	"github.com/goliatone/go-views/pkg/offline"
)

func main() {
	manifest := flag.String("manifest", "views.yaml", "bundle manifest path")
	template := flag.String("template", "", "virtual path of the template to render")
	model := flag.String("model", "", "model data: JSON file path or inline JSON object")
	baseURL := flag.String("base-url", "http://localhost:8080", "base URL for link generation")
	output := flag.String("output", "", "output file (stdout if empty)")
	doMinify := flag.Bool("minify", false, "minify rendered HTML")
	interactive := flag.Bool("interactive", false, "pick the template from the bundle's registered paths")
	flag.Parse()

	m, err := bundle.LoadManifest(*manifest)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	b, err := m.Build()
	if err != nil {
		log.Fatalf("Failed to build bundle: %v", err)
	}

	renderer, err := offline.Default().For(b)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	name := *template
	if *interactive {
		name, err = pickTemplate(b)
		if err != nil {
			log.Fatalf("Failed to pick template: %v", err)
		}
	}
	if name == "" {
		log.Fatalf("No template given: pass -template or -interactive")
	}

	data, err := parseModel(*model)
	if err != nil {
		log.Fatalf("Invalid model: %v", err)
	}

	var opts []offline.RenderOption
	if *doMinify {
		opts = append(opts, offline.WithMinify())
	}

	text, err := renderer.Render(name, data, *baseURL, opts...)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Rendered view written to %s\n", *output)
	} else {
		fmt.Println(text)
	}
}

func pickTemplate(b *bundle.Bundle) (string, error) {
	paths := b.RegisteredPaths()
	if len(paths) == 0 {
		return "", fmt.Errorf("bundle %q registers no template paths", b.Name())
	}
	sort.Strings(paths)

	var picked string
	prompt := &survey.Select{
		Message: "Template to render:",
		Options: paths,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", err
	}
	return picked, nil
}

func parseModel(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}, nil
	}

	payload := []byte(trimmed)
	if !strings.HasPrefix(trimmed, "{") {
		data, err := os.ReadFile(trimmed)
		if err != nil {
			return nil, fmt.Errorf("read model file: %w", err)
		}
		payload = data
	}

	out := map[string]any{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return out, nil
}
