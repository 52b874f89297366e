package service

import (
	"encoding/json"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/inkform/gravure-api/internal/domain/model"
	apperrors "github.com/inkform/gravure-api/internal/errors"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// FilterJobs returns the jobs for which the expression evaluates truthy.
// An empty expression keeps every job; an invalid expression is a
// validation error. Jobs are matched against their JSON representation, so
// expressions use the wire field names, e.g. `jobNumber == 'J-100'` or
// `contains(customerName, 'Acme')`.
func FilterJobs(evaluator JMESPathEvaluator, jobs []*model.Job, expr string) ([]*model.Job, error) {
	if strings.TrimSpace(expr) == "" {
		return jobs, nil
	}
	if evaluator == nil {
		evaluator = jmespathLibEvaluator{}
	}
	if err := evaluator.Validate(expr); err != nil {
		return nil, apperrors.ValidationField("filter", "invalid filter expression: "+err.Error())
	}

	out := make([]*model.Job, 0, len(jobs))
	for _, job := range jobs {
		doc, err := jobDocument(job)
		if err != nil {
			return nil, err
		}
		res, err := evaluator.Evaluate(expr, doc)
		if err != nil {
			return nil, apperrors.ValidationField("filter", "filter evaluation failed: "+err.Error())
		}
		if truthy(res) {
			out = append(out, job)
		}
	}
	return out, nil
}

// jobDocument converts a job to the generic map form JMESPath operates on.
func jobDocument(job *model.Job) (any, error) {
	b, err := json.Marshal(job)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode job for filtering")
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode job for filtering")
	}
	return doc, nil
}

// truthy follows JMESPath semantics: false, null, empty strings, empty
// collections are false, everything else is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
