package service

import (
	"context"
	"fmt"
)

// BatchProgress reports progress during a batch analysis
type BatchProgress struct {
	Total       int
	Completed   int
	CurrentTest string
	Error       error
}

// BatchResult contains the results of a batch analysis
type BatchResult struct {
	Pending  int
	Analyzed int
	Warnings int
	Errors   []error
}

// AnalyzeAll analyzes every test that has no current analysis: new imports
// and tests whose overrides changed. Per-test failures are collected and do
// not stop the batch.
func (s *AnalysisService) AnalyzeAll(ctx context.Context, progress chan<- BatchProgress) (*BatchResult, error) {
	if progress != nil {
		defer close(progress)
	}
	if s.store == nil {
		return nil, fmt.Errorf("analysis service has no store")
	}

	tests, err := s.store.GetTestsNeedingAnalysis(BatchPageLimit)
	if err != nil {
		return nil, fmt.Errorf("getting tests needing analysis: %w", err)
	}

	result := &BatchResult{Pending: len(tests)}
	if len(tests) == 0 {
		return result, nil
	}

	if progress != nil {
		progress <- BatchProgress{Total: len(tests), Completed: 0}
	}

	for i, test := range tests {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if progress != nil {
			progress <- BatchProgress{
				Total:       len(tests),
				Completed:   i,
				CurrentTest: testLabel(test.Athlete, test.TestedAt),
			}
		}

		res, err := s.AnalyzeTest(test.ID)
		if err != nil {
			// A test without usable stages stays pending; keep going
			err = fmt.Errorf("test %s (%s): %w", test.ID, test.Athlete, err)
			result.Errors = append(result.Errors, err)
			if progress != nil {
				progress <- BatchProgress{Total: len(tests), Completed: i + 1, Error: err}
			}
			continue
		}
		result.Analyzed++
		result.Warnings += len(res.Warnings)
	}

	if progress != nil {
		progress <- BatchProgress{Total: len(tests), Completed: len(tests)}
	}

	return result, nil
}
