// Package async provides helpers for running independent operations
// concurrently. It is used to parallelize work with no ordering
// requirement, such as polling several service health endpoints.
package async

import (
	"context"
	"fmt"
)

// Task represents one named concurrent operation.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel starts all tasks concurrently and waits for every one to
// finish. The first error encountered is returned, wrapped with the
// task name; later errors are dropped.
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		name string
		err  error
	}

	resultChan := make(chan result, len(tasks))
	for _, task := range tasks {
		go func() {
			resultChan <- result{name: task.Name, err: task.Func(ctx)}
		}()
	}

	var firstError error
	for range len(tasks) {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = fmt.Errorf("task %s: %w", res.name, res.err)
		}
	}
	return firstError
}
