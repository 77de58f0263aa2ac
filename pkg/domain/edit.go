package domain

import (
	"fmt"
	"strings"
)

// DeletePolicy decides what happens to references when a question is removed.
type DeletePolicy string

const (
	// RejectIfReferenced refuses to remove a question other questions lead to.
	RejectIfReferenced DeletePolicy = "reject"
	// DetachReferences rewrites every reference to the removed question to
	// "end of form" and drops routes that led to it.
	DetachReferences DeletePolicy = "detach"
)

// Referrers returns the ids of questions whose strategy targets id.
func Referrers(f *Form, id string) []string {
	var out []string
	for _, q := range f.Questions {
		if q.ID == id {
			continue
		}
		for _, t := range Targets(q.Transition) {
			if t == id {
				out = append(out, q.ID)
				break
			}
		}
	}
	return out
}

// RemoveQuestion returns a copy of f without the question. Under
// DetachReferences the returned issues describe every rewritten reference.
func RemoveQuestion(f *Form, id string, policy DeletePolicy) (*Form, []Issue, error) {
	idx := f.Index(id)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}

	referrers := Referrers(f, id)
	if len(referrers) > 0 && policy != DetachReferences {
		return nil, nil, NewValidationError(IssueStillReferenced, id,
			fmt.Sprintf("question is referenced by %s", strings.Join(referrers, ", ")))
	}

	out := f.Clone()
	out.Questions = append(out.Questions[:idx], out.Questions[idx+1:]...)

	var warnings []Issue
	for i := range out.Questions {
		q := &out.Questions[i]
		switch v := q.Transition.(type) {
		case Static:
			if v.NextQuestionID == id {
				q.Transition = Static{}
				warnings = append(warnings, Issue{
					Code: IssueStillReferenced, QuestionID: q.ID, Path: "transition.nextQuestionId",
					Message: fmt.Sprintf("static target %q removed, question now ends the form", id),
				})
			}
		case RuleBased:
			routes := make([]Route, 0, len(v.Routes))
			for ri, r := range v.Routes {
				if r.NextQuestionID == id {
					warnings = append(warnings, Issue{
						Code: IssueStillReferenced, QuestionID: q.ID, Path: fmt.Sprintf("transition.routes[%d]", ri),
						Message: fmt.Sprintf("route to %q dropped", id),
					})
					continue
				}
				routes = append(routes, r)
			}
			v.Routes = routes
			if v.FallbackNextQuestionID == id {
				v.FallbackNextQuestionID = ""
				warnings = append(warnings, Issue{
					Code: IssueStillReferenced, QuestionID: q.ID, Path: "transition.fallbackNextQuestionId",
					Message: fmt.Sprintf("fallback %q removed, fallback now ends the form", id),
				})
			}
			q.Transition = v
		}
	}
	return out, warnings, nil
}
