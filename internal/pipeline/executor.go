package pipeline

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
)

// StageRecord is the trace entry of one executed stage.
type StageRecord struct {
	StageID  string
	Role     Role
	Persona  string // title of the persona the stage ran as
	Prompt   string
	Output   string
	Duration time.Duration
}

// Result is the output of the last stage in execution order plus the trace.
type Result struct {
	Output string
	Trace  []StageRecord
}

type promptData struct {
	Query    string
	Context  string
	Upstream string
}

// Executor runs specs stage by stage against a generator.
type Executor struct {
	gen         domain.Generator
	temperature float64
	log         *zap.Logger
	now         func() time.Time
}

// NewExecutor returns an executor dispatching every stage at temperature.
func NewExecutor(gen domain.Generator, temperature float64, log *zap.Logger) *Executor {
	return &Executor{
		gen:         gen,
		temperature: temperature,
		log:         logging.OrNop(log).Named("pipeline"),
		now:         time.Now,
	}
}

// Run validates spec and executes its stages in topological order. The first
// generator error aborts the run and no partial result is returned.
func (e *Executor) Run(ctx context.Context, spec Spec) (Result, error) {
	order, err := Order(spec.Stages)
	if err != nil {
		return Result{}, err
	}
	tmpls := make([]*template.Template, len(spec.Stages))
	for i, st := range spec.Stages {
		if _, ok := spec.Roles[st.Role]; !ok {
			return Result{}, fmt.Errorf("%w: stage %s has no persona for role %s", domain.ErrInvalidSpec, st.ID, st.Role)
		}
		t, err := template.New(st.ID).Option("missingkey=error").Parse(st.Instructions)
		if err != nil {
			return Result{}, fmt.Errorf("%w: stage %s: %w", domain.ErrInvalidSpec, st.ID, err)
		}
		tmpls[i] = t
	}

	log := e.log.With(zap.String("pipeline", spec.Name))
	outputs := make(map[string]string, len(spec.Stages))
	trace := make([]StageRecord, 0, len(spec.Stages))
	for _, i := range order {
		st := spec.Stages[i]
		upstream := make([]string, len(st.DependsOn))
		for j, dep := range st.DependsOn {
			upstream[j] = outputs[dep]
		}

		var sb strings.Builder
		data := promptData{Query: spec.Query, Context: spec.Context, Upstream: strings.Join(upstream, "\n\n")}
		if err := tmpls[i].Execute(&sb, data); err != nil {
			return Result{}, fmt.Errorf("%w: stage %s: %w", domain.ErrInvalidSpec, st.ID, err)
		}
		if st.ExpectedOutput != "" {
			sb.WriteString("\n\nExpected output: ")
			sb.WriteString(st.ExpectedOutput)
		}
		prompt := sb.String()
		persona := spec.Roles[st.Role]

		start := e.now()
		out, err := e.gen.Generate(ctx, domain.GenerateRequest{
			Prompt:      prompt,
			Persona:     persona.System(),
			Temperature: e.temperature,
		})
		elapsed := e.now().Sub(start)
		if err != nil {
			log.Warn("stage failed", zap.String("stage", st.ID), zap.String("role", string(st.Role)), zap.Error(err))
			return Result{}, &domain.StageError{StageID: st.ID, Role: string(st.Role), Err: err}
		}
		log.Debug("stage completed", zap.String("stage", st.ID), zap.Duration("took", elapsed), zap.Int("output_len", len(out)))

		outputs[st.ID] = out
		trace = append(trace, StageRecord{
			StageID:  st.ID,
			Role:     st.Role,
			Persona:  persona.Title,
			Prompt:   prompt,
			Output:   out,
			Duration: elapsed,
		})
	}
	return Result{Output: trace[len(trace)-1].Output, Trace: trace}, nil
}

// Order returns stage indexes in a topological order of DependsOn. Among
// stages that are ready at the same time, declaration order wins.
func Order(stages []Stage) ([]int, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: no stages", domain.ErrInvalidSpec)
	}
	index := make(map[string]int, len(stages))
	for i, st := range stages {
		if st.ID == "" {
			return nil, fmt.Errorf("%w: stage %d has no id", domain.ErrInvalidSpec, i)
		}
		if _, dup := index[st.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate stage id %s", domain.ErrInvalidSpec, st.ID)
		}
		index[st.ID] = i
	}
	pending := make([]int, len(stages))
	for i, st := range stages {
		for _, dep := range st.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("%w: stage %s depends on unknown stage %s", domain.ErrInvalidSpec, st.ID, dep)
			}
			if dep == st.ID {
				return nil, fmt.Errorf("%w: stage %s depends on itself", domain.ErrInvalidSpec, st.ID)
			}
		}
		pending[i] = len(st.DependsOn)
	}

	done := make([]bool, len(stages))
	order := make([]int, 0, len(stages))
	for len(order) < len(stages) {
		next := -1
		for i := range stages {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("%w: dependency cycle among stages", domain.ErrInvalidSpec)
		}
		done[next] = true
		order = append(order, next)
		for i, st := range stages {
			for _, dep := range st.DependsOn {
				if dep == stages[next].ID {
					pending[i]--
				}
			}
		}
	}
	return order, nil
}
