// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"
)

type integer interface {
	~int | ~uint | ~uint32 | ~uint64
}

// rangeValue is a [pflag.Value] for integers within an inclusive range.
// Values are parsed as signed 64 bit integers, so bounds must fit into int64.
type rangeValue[T integer] struct {
	value        *T
	lower, upper T
}

func newRangeValue[T integer](value *T, lower, upper T) *rangeValue[T] {
	return &rangeValue[T]{
		value: value,
		lower: lower,
		upper: upper,
	}
}

func (r *rangeValue[T]) String() string {
	// pflag calls String on a zero value to detect defaults.
	if r.value == nil {
		return "0"
	}

	return strconv.FormatInt(int64(*r.value), 10)
}

func (r *rangeValue[T]) Set(s string) error {
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if parsed < int64(r.lower) || parsed > int64(r.upper) {
		return fmt.Errorf("%d not in [%d, %d]: %w",
			parsed, r.lower, r.upper, ErrValueOutOfRange)
	}

	*r.value = T(parsed)

	return nil
}

func (*rangeValue[T]) Type() string {
	var zero T

	return fmt.Sprintf("%T", zero)
}
