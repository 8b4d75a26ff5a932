package framework

import (
	"fmt"
	"strings"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Counts returns the number of tests that passed, failed and were skipped. Groups only count
// when they failed or were skipped themselves.
func (r Results) Counts() (passed, failed, skipped int) {
	failed = len(r.Failures)
	for _, t := range r.Tests {
		if t.Skipped {
			skipped++
		}
	}
	passed = len(r.Tests) - failed - skipped
	return
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

func (t TestID) IsRoot() bool {
	return len(t.Path) == 0
}

// Plus returns a new TestID for a subtest. The receiver's path is never shared with the result.
func (t TestID) Plus(name string) TestID {
	path := make([]string, 0, len(t.Path)+1)
	path = append(path, t.Path...)
	return TestID{Path: append(path, name)}
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of a test run, listing every failure with its errors.
func PrintResults(results Results) {
	passed, failed, skipped := results.Counts()
	if failed == 0 {
		fmt.Printf("All tests passed (%d passed, %d skipped)\n", passed, skipped)
		return
	}
	fmt.Printf("FAILED TESTS (%d passed, %d failed, %d skipped):\n", passed, failed, skipped)
	for _, f := range results.Failures {
		fmt.Printf("* %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Printf("    %s\n", line)
			}
		}
	}
}
