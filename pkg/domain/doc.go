/*
Package domain holds the typed graph model of a form-flow.

A Form is an ordered list of Questions. Every Question carries a content kind
(short answer, long answer, multiple choice, contact info, informational) and a
TransitionStrategy deciding which question comes next:

  - Static: fixed wiring to one question, or the end of the form.
  - ModelDirected: the oracle picks among all other questions.
  - RuleBased: ordered routes guarded by Conditions whose leaves are oracle predicates.

The variants are closed sum types. Code that switches over them must handle every
variant and treat an unknown one as an error.
*/
package domain
