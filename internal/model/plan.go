package model

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedOutput = errors.New("malformed reasoning output")

const (
	MinPlanTasks = 5
	MaxPlanTasks = 8
)

type EvaluationPlan struct {
	Tasks     []string `json:"tasks"`
	Reasoning string   `json:"reasoning"`
}

// Validate trims tasks in place and checks the count is within bounds.
func (p *EvaluationPlan) Validate() error {
	tasks := make([]string, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		if t = strings.TrimSpace(t); t != "" {
			tasks = append(tasks, t)
		}
	}
	if len(tasks) < MinPlanTasks || len(tasks) > MaxPlanTasks {
		return fmt.Errorf("%w: plan has %d tasks, want %d-%d", ErrMalformedOutput, len(tasks), MinPlanTasks, MaxPlanTasks)
	}
	p.Tasks = tasks
	return nil
}
