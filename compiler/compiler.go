// Package compiler orchestrates the dual-notation round trip: parse an
// input spec into canonical IR, render the sibling notation, and verify
// that reparsing the canonical output reproduces the same IR. The
// equality gate runs before any output file is written, so a failed
// compilation leaves the project untouched.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/specforge/specforge/dal"
	"github.com/specforge/specforge/gwt"
	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary"
)

// Outputs lists the artifact paths a compilation produced.
type Outputs struct {
	DAL          string
	CanonicalGWT string
	IR           string
	Diff         string
}

// Compile compiles a .txt or .dal spec into canonical outputs under
// projectRoot: specs/<slug>.dal, specs/<slug>.txt.canonical,
// .specforge/ir/<slug>.json, and .specforge/roundtrip/<slug>.diff.txt.
func Compile(inputPath string, vocab *vocabulary.Vocabulary, projectRoot string) (*Outputs, error) {
	if projectRoot == "" {
		var err error
		projectRoot, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	slug := stem(inputPath)
	specsDir := filepath.Join(projectRoot, "specs")
	irDir := filepath.Join(projectRoot, ".specforge", "ir")
	roundtripDir := filepath.Join(projectRoot, ".specforge", "roundtrip")

	switch filepath.Ext(inputPath) {
	case ".txt":
		original, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, err
		}
		feature, err := gwt.Parse(string(original), inputPath, vocab)
		if err != nil {
			return nil, err
		}
		dalText := dal.Render(feature, vocab)
		canonicalGWT := gwt.Render(feature, vocab)

		canonicalPath := filepath.Join(specsDir, slug+".txt.canonical")

		// The gate: the canonical rendering must reparse to the same
		// IR before anything touches disk.
		reparsed, err := gwt.Parse(canonicalGWT, canonicalPath, vocab)
		if err != nil {
			return nil, fmt.Errorf("roundtrip gate failed: canonical output does not reparse: %w", err)
		}
		if !feature.Equal(reparsed) {
			return nil, fmt.Errorf("roundtrip gate failed: IR mismatch for %s vs %s", inputPath, canonicalPath)
		}

		irData, err := ir.Serialize(feature)
		if err != nil {
			return nil, err
		}
		out := &Outputs{
			DAL:          filepath.Join(specsDir, slug+".dal"),
			CanonicalGWT: canonicalPath,
			IR:           filepath.Join(irDir, slug+".json"),
			Diff:         filepath.Join(roundtripDir, slug+".diff.txt"),
		}
		diff := unifiedDiff(string(original), canonicalGWT, inputPath, canonicalPath)

		for _, dir := range []string{specsDir, irDir, roundtripDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		for _, w := range []struct {
			path string
			data string
		}{
			{out.DAL, dalText},
			{out.CanonicalGWT, canonicalGWT},
			{out.IR, string(irData)},
			{out.Diff, diff},
		} {
			if err := os.WriteFile(w.path, []byte(w.data), 0o644); err != nil {
				return nil, err
			}
		}
		return out, nil

	case ".dal":
		feature, err := dal.ParseFile(inputPath, vocab)
		if err != nil {
			return nil, err
		}
		canonicalGWT := gwt.Render(feature, vocab)
		irData, err := ir.Serialize(feature)
		if err != nil {
			return nil, err
		}
		out := &Outputs{
			CanonicalGWT: filepath.Join(specsDir, slug+".txt.canonical"),
			IR:           filepath.Join(irDir, slug+".json"),
		}
		for _, dir := range []string{specsDir, irDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		if err := os.WriteFile(out.CanonicalGWT, []byte(canonicalGWT), 0o644); err != nil {
			return nil, err
		}
		if err := os.WriteFile(out.IR, irData, 0o644); err != nil {
			return nil, err
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported input extension for %s; expected .txt or .dal", inputPath)
}

// VerifyRoundtrip checks round-trip stability without writing anything.
func VerifyRoundtrip(inputPath string, vocab *vocabulary.Vocabulary) error {
	feature, err := gwt.ParseFile(inputPath, vocab)
	if err != nil {
		return err
	}
	canonical := gwt.Render(feature, vocab)
	reparsed, err := gwt.Parse(canonical, inputPath, vocab)
	if err != nil {
		return fmt.Errorf("canonical output does not reparse: %w", err)
	}
	if !feature.Equal(reparsed) {
		return fmt.Errorf("roundtrip IR mismatch for %s", inputPath)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func unifiedDiff(original, canonical, fromName, toName string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(canonical),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		return "No textual differences.\n"
	}
	return strings.TrimSpace(text) + "\n"
}
