/*
Package dsl provides a fluent API for building forms in Go.

	b := dsl.New("Mentor intake")

	b.Add("goal").
		ShortAnswer("What do you want to achieve?").
		Go("finances")

	b.Add("finances").
		LongAnswer("Tell us about your savings.").
		When(dsl.Ask("The answer mentions a budget over $5k"), "premium").
		Otherwise("basic")

	b.Add("premium").Info("You qualify for the premium track.").End()
	b.Add("basic").Info("Let's start with the basics.").End()

	form, err := b.Build()

Questions keep the order in which they were added. Build validates the form.
*/
package dsl
