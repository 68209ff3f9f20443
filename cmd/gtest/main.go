// gtest compiles every unit manifest in-process and compares the lowered
// QBE and the name resolutions with the golden file stored next to it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/gpyc/pkg/codegen"
	"github.com/xplshn/gpyc/pkg/config"
	"github.com/xplshn/gpyc/pkg/manifest"
)

// Golden is the recorded output for one manifest.
type Golden struct {
	Hash  string `json:"hash"`
	Names string `json:"names"`
	IR    string `json:"ir"`
}

type FileTestResult struct {
	File     string        `json:"file"`
	Hash     string        `json:"hash"`
	Status   string        `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string        `json:"message,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Duration time.Duration `json:"duration"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	generateGolden = flag.Bool("generate-golden", false, "Write the golden files instead of comparing against them.")
	testFiles      = flag.String("test-files", "testdata/*.yaml", "Glob pattern(s) for manifests to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	target         = flag.String("target", "amd64_sysv", "QBE target the manifests are lowered for.")
	jobs           = flag.Int("j", runtime.NumCPU(), "Number of parallel test jobs.")
	assemble       = flag.Bool("assemble", false, "Also assemble the lowered IR with libqbe.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	useCache       = flag.Bool("cached", false, "Skip manifests that passed last time and have not changed.")
	goldenDir      = flag.String("dir", "", "Directory to store/read golden files (defaults to the manifest's dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

// libqbe keeps global state; one assembly at a time.
var assembleMu sync.Mutex

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *jobs < 1 {
		*jobs = 1
	}

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No manifests found matching the pattern(s).")
		return
	}

	if *generateGolden {
		for _, file := range files {
			if err := writeGolden(file); err != nil {
				log.Fatalf("%s[ERROR]%s %s: %v\n", cRed, cNone, file, err)
			}
			fmt.Printf("%s[GOLDEN]%s %s\n", cGreen, cNone, goldenPath(file))
		}
		return
	}

	results := runTestSuite(files)
	printSummary(results)
	if hasFailures(writeJSONReport(results)) {
		os.Exit(1)
	}
}

func goldenPath(manifestFile string) string {
	name := "." + filepath.Base(manifestFile) + ".golden"
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, name)
	}
	return filepath.Join(filepath.Dir(manifestFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// compile runs the whole pipeline on one manifest.
func compile(file string) (*Golden, error) {
	unit, err := manifest.Load(file)
	if err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	cfg.SetTarget(runtime.GOOS, runtime.GOARCH, *target)

	res, err := manifest.Build(unit, cfg)
	if err != nil {
		return nil, err
	}
	prog, err := codegen.Lower(res.Root, res.Global)
	if err != nil {
		return nil, err
	}

	backend := codegen.NewQBEBackend()
	ir, err := backend.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}
	if *assemble {
		assembleMu.Lock()
		_, err = backend.Generate(prog, cfg)
		assembleMu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	return &Golden{Names: res.Report(), IR: ir}, nil
}

func writeGolden(file string) error {
	g, err := compile(file)
	if err != nil {
		return err
	}
	if g.Hash, err = hashFile(file); err != nil {
		return err
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(goldenPath(file), data, 0644)
}

func runTestSuite(files []string) []*FileTestResult {
	previousResults := make(TestSuiteResults)
	if prevData, err := os.ReadFile(reportPath()); err == nil {
		if json.Unmarshal(prevData, &previousResults) != nil {
			log.Printf("%s[WARN]%s Could not parse previous results file %s. Cache will not be used.\n", cYellow, cNone, reportPath())
			previousResults = make(TestSuiteResults)
		}
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	type task struct{ file, hash string }
	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- testFile(t.file, t.hash)
			}
		}()
	}

	// Feed the tasks channel, skipping manifests with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] || skipList[filepath.Base(file)] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Hash: fileHash, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		if prev, ok := previousResults[file]; ok && *useCache && prev.Status == "PASS" && prev.Hash == fileHash {
			resultsChan <- &FileTestResult{File: file, Hash: fileHash, Status: "PASS", Message: "Unchanged since last run (cached)"}
			continue
		}
		tasks <- task{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})
	return allResults
}

func testFile(file, fileHash string) *FileTestResult {
	result := &FileTestResult{File: file, Hash: fileHash}

	data, err := os.ReadFile(goldenPath(file))
	if err != nil {
		result.Status, result.Message = "ERROR", fmt.Sprintf("No golden file (run with --generate-golden): %v", err)
		return result
	}
	var want Golden
	if err := json.Unmarshal(data, &want); err != nil {
		result.Status, result.Message = "ERROR", fmt.Sprintf("Could not parse golden file: %v", err)
		return result
	}

	start := time.Now()
	got, err := compile(file)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status, result.Message = "FAIL", fmt.Sprintf("Compilation failed: %v", err)
		return result
	}

	var diffs strings.Builder
	if d := cmp.Diff(want.Names, got.Names); d != "" {
		diffs.WriteString("Name resolution mismatch:\n" + d)
	}
	if d := cmp.Diff(want.IR, got.IR); d != "" {
		diffs.WriteString("IR mismatch:\n" + d)
	}
	if diffs.Len() > 0 {
		result.Status, result.Message, result.Diff = "FAIL", "Output differs from golden file", diffs.String()
		if want.Hash != fileHash {
			result.Message += " (manifest changed since the golden file was written)"
		}
		return result
	}

	result.Status, result.Message = "PASS", "Output matches golden file"
	return result
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var total time.Duration

	for _, result := range results {
		fmt.Println("----------------------------------------------------------------------")
		fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)

		switch result.Status {
		case "PASS":
			passed++
			fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
		if *verbose && result.Duration > 0 {
			fmt.Printf("  compile: %s\n", formatDuration(result.Duration))
		}
		total += result.Duration
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if *verbose {
		fmt.Printf("Total compile time: %s\n", strings.TrimSpace(formatDuration(total)))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func reportPath() string {
	if *goldenDir != "" {
		return filepath.Join(*goldenDir, *outputJSON)
	}
	return *outputJSON
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	if *goldenDir != "" {
		if err := os.MkdirAll(*goldenDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *goldenDir, err)
		}
	}
	if err := os.WriteFile(reportPath(), jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, reportPath(), err)
	} else {
		fmt.Printf("Full test report saved to %s\n", reportPath())
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
