// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "github.com/stretchr/testify/assert"

// ArgumentValues returns the values of all [Argument]s with the given name
// in the order they are present in args.
func ArgumentValues(args []Argument, name string) []string {
	var values []string

	for _, arg := range args {
		if arg.name == name {
			values = append(values, arg.value)
		}
	}

	return values
}

// ArgumentValueAssertionFunc returns an [assert.ComparisonAssertionFunc] that
// runs the given assertion on the values of all [Argument]s with the given
// name, as returned by [ArgumentValues].
func ArgumentValueAssertionFunc(
	name string,
	assertion assert.ComparisonAssertionFunc,
) assert.ComparisonAssertionFunc {
	return func(t assert.TestingT, arg1, arg2 any, arg3 ...any) bool {
		args, ok := arg1.([]Argument)
		if !assert.True(t, ok, "first argument should be []Argument") {
			return false
		}

		values := ArgumentValues(args, name)
		if len(values) == 0 {
			return assert.Fail(t, "Argument not found", name)
		}

		return assertion(t, values, arg2, arg3...)
	}
}
