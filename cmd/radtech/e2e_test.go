package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/radtech/internal/export"
)

// binaryPath holds the path to the compiled binary
var binaryPath string

// cliContext holds state for a single scenario
type cliContext struct {
	tmpDir   string
	exitCode int
	output   string
}

// buildBinary compiles the radtech binary into dir
func buildBinary(dir string) (string, error) {
	out := filepath.Join(dir, "radtech")
	if runtime.GOOS == "windows" {
		out += ".exe"
	}

	_, thisFile, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", out, "./cmd/radtech")
	cmd.Dir = projectRoot
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("build failed: %w\n%s", err, stderr.String())
	}
	return out, nil
}

func TestCLIFeatures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping binary feature tests in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH")
	}

	var err error
	binaryPath, err = buildBinary(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCLIScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeCLIScenario(sc *godog.ScenarioContext) {
	tc := &cliContext{}

	sc.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "radtech-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		return ctx, nil
	})

	sc.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		if tc.tmpDir != "" {
			os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	sc.Step(`^radtech is built$`, tc.radtechIsBuilt)
	sc.Step(`^I run radtech with "([^"]*)"$`, tc.iRunRadtechWith)
	sc.Step(`^the exit code should be (\d+)$`, tc.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^"([^"]*)" should exist$`, tc.shouldExist)
	sc.Step(`^"([^"]*)" should contain "([^"]*)"$`, tc.fileShouldContain)
	sc.Step(`^"([^"]*)" should be a DICOM file with ([A-Za-z]+) "([^"]*)"$`, tc.dicomTagShouldBe)
}

func (tc *cliContext) radtechIsBuilt() error {
	if binaryPath == "" {
		return fmt.Errorf("binary not built")
	}
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		return fmt.Errorf("binary does not exist at %s", binaryPath)
	}
	return nil
}

func (tc *cliContext) path(p string) string {
	return strings.ReplaceAll(p, "{tmpdir}", tc.tmpDir)
}

func (tc *cliContext) iRunRadtechWith(args string) error {
	cmd := exec.Command(binaryPath, splitArgs(tc.path(args))...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	tc.output = output.String()

	if exitErr, ok := err.(*exec.ExitError); ok {
		tc.exitCode = exitErr.ExitCode()
	} else if err != nil {
		return fmt.Errorf("failed to run command: %w", err)
	} else {
		tc.exitCode = 0
	}
	return nil
}

func (tc *cliContext) theExitCodeShouldBe(expected int) error {
	if tc.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nOutput:\n%s", expected, tc.exitCode, tc.output)
	}
	return nil
}

func (tc *cliContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(tc.output, expected) {
		return fmt.Errorf("output does not contain %q\nOutput:\n%s", expected, tc.output)
	}
	return nil
}

func (tc *cliContext) shouldExist(path string) error {
	if _, err := os.Stat(tc.path(path)); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", tc.path(path))
	}
	return nil
}

func (tc *cliContext) fileShouldContain(path, expected string) error {
	data, err := os.ReadFile(tc.path(path))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), expected) {
		return fmt.Errorf("%s does not contain %q", path, expected)
	}
	return nil
}

func (tc *cliContext) dicomTagShouldBe(path, tagName, expected string) error {
	info, err := dicomTag(tagName)
	if err != nil {
		return err
	}
	ds, err := dicom.ParseFile(tc.path(path), nil)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	elem, err := ds.FindElementByTag(info.Tag)
	if err != nil {
		return fmt.Errorf("%s not found in %s", tagName, path)
	}
	values, ok := elem.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return fmt.Errorf("%s has no string value", tagName)
	}
	if got := strings.TrimSpace(values[0]); got != expected {
		return fmt.Errorf("expected %s %q, got %q", tagName, expected, got)
	}
	return nil
}

var exposureTags = map[string]export.TagInfo{
	"KVP":             {Name: "KVP", Tag: tag.KVP},
	"XRayTubeCurrent": {Name: "XRayTubeCurrent", Tag: tag.XRayTubeCurrent},
	"ExposureTime":    {Name: "ExposureTime", Tag: tag.ExposureTime},
	"Exposure":        {Name: "Exposure", Tag: tag.Exposure},
	"ExposureInuAs":   {Name: "ExposureInuAs", Tag: tag.ExposureInuAs},
}

// dicomTag resolves exposure attributes as well as the overridable tags.
func dicomTag(name string) (export.TagInfo, error) {
	if info, ok := exposureTags[name]; ok {
		return info, nil
	}
	return export.GetTagByName(name)
}

// splitArgs splits a command line string into arguments. Single quotes
// group words.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false

	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}
